package metastore

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Top-level keys of the stored block.
const (
	KeyContext          = "context"
	KeyPublishInstances = "publish_instances"
	KeyContainers       = "containers"
)

// Block is the complete structured state kept in a document. Values are
// JSON-compatible; numbers decoded from a document are json.Number so large
// integers such as nanosecond timestamps survive unchanged.
type Block map[string]any

// Merge returns a new block holding every key of b overlaid with every key of
// target. Neither input is modified.
func (b Block) Merge(target Block) Block {
	out := make(Block, len(b)+len(target))
	maps.Copy(out, b)
	maps.Copy(out, target)
	return out
}

// Context returns the free-form session context, empty when absent.
func (b Block) Context() (map[string]any, error) {
	out := map[string]any{}
	if err := b.decodeKey(KeyContext, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// PublishInstances returns the stored instances in insertion order.
func (b Block) PublishInstances() ([]Instance, error) {
	var out []Instance
	if err := b.decodeKey(KeyPublishInstances, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Containers returns the stored containers in insertion order.
func (b Block) Containers() ([]Container, error) {
	var out []Container
	if err := b.decodeKey(KeyContainers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// With returns a copy of b with key set to the JSON form of value.
func (b Block) With(key string, value any) (Block, error) {
	normalized, err := normalizeValue(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Merge(Block{key: normalized}), nil
}

func (b Block) decodeKey(key string, dst any) error {
	value, ok := b[key]
	if !ok || value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := decodeNumbers(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// normalizeValue turns typed records into plain JSON values so a block always
// holds the same shapes whether it was decoded or built in memory.
func normalizeValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	parsed, err := parsePayloadValue(data)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}
