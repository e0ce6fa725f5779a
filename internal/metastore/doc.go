// Package metastore persists pipeline state inside the free-text notes field
// of a host project.
//
// The host offers no structured storage, so the whole state is serialized as
// pretty-printed JSON and wrapped in a guard span:
//
//	AYON_CONTEXT::{ ...json... }::AYON_CONTEXT_END
//
// Decode and Encode are the pure text-level operations; Store binds them to a
// Document and a logger and adds the accessors the creators and loaders use.
// Every mutation is a full read-merge-write of the block: callers fetch the
// block, change one top-level key and write the block back. Writes merge
// shallowly, so keys the caller did not set survive.
//
// Malformed payloads are not errors. The span is reset to an empty payload and
// the reset is logged at warning level.
package metastore
