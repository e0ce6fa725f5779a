package metastore

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

// Document is the host-side text field the block lives in.
type Document interface {
	Notes() string
	SetNotes(notes string)
}

// Store reads and writes the block of a document. Every mutation is a full
// read-merge-write of the block; callers must not interleave writes on the
// same document.
type Store struct {
	logger *slog.Logger
}

// NewStore returns a store that reports recovered payloads on logger.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logging.NewComponentLogger(logger, "metastore")}
}

// Load returns the block stored in doc, initializing the document when it
// holds no span and resetting a malformed span in place.
func (s *Store) Load(doc Document) (Block, error) {
	if doc == nil {
		return nil, errors.New("metastore: nil document")
	}
	notes := doc.Notes()
	block, updated, err := Decode(notes)
	if err != nil {
		if !errors.Is(err, ErrMalformedPayload) {
			return nil, err
		}
		logging.WarnWithContext(s.logger, "metadata payload reset",
			"metadata_recovered",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "previous pipeline data in the project notes was lost; recreate instances"),
			logging.String(logging.FieldImpact, "stored instances and containers were cleared"),
		)
	}
	if updated != notes {
		doc.SetNotes(updated)
	}
	return block, nil
}

// Save merges target over the stored block, key by key.
func (s *Store) Save(doc Document, target Block) error {
	if doc == nil {
		return errors.New("metastore: nil document")
	}
	// Load first so a malformed span is logged before Encode discards it.
	if _, err := s.Load(doc); err != nil {
		return err
	}
	notes, err := Encode(doc.Notes(), target)
	if err != nil {
		return err
	}
	doc.SetNotes(notes)
	return nil
}

func (s *Store) saveKey(doc Document, key string, value any) error {
	update, err := Block{}.With(key, value)
	if err != nil {
		return err
	}
	return s.Save(doc, update)
}

// Context returns the stored session context.
func (s *Store) Context(doc Document) (map[string]any, error) {
	block, err := s.Load(doc)
	if err != nil {
		return nil, err
	}
	return block.Context()
}

// SetContext replaces the stored session context.
func (s *Store) SetContext(doc Document, ctx map[string]any) error {
	if ctx == nil {
		ctx = map[string]any{}
	}
	return s.saveKey(doc, KeyContext, ctx)
}

// PublishInstances returns the stored instances.
func (s *Store) PublishInstances(doc Document) ([]Instance, error) {
	block, err := s.Load(doc)
	if err != nil {
		return nil, err
	}
	return block.PublishInstances()
}

// AddPublishInstance appends inst without checking for an existing id.
func (s *Store) AddPublishInstance(doc Document, inst Instance) error {
	instances, err := s.PublishInstances(doc)
	if err != nil {
		return err
	}
	instances = append(instances, inst)
	return s.WritePublishInstances(doc, instances)
}

// UpdatePublishInstance replaces the instance with the same id, or appends
// inst when no instance carries that id.
func (s *Store) UpdatePublishInstance(doc Document, inst Instance) error {
	if inst.ID == "" {
		return errors.New("metastore: instance has no instance_id")
	}
	instances, err := s.PublishInstances(doc)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(instances, func(existing Instance) bool { return existing.ID == inst.ID })
	if idx < 0 {
		instances = append(instances, inst)
	} else {
		instances[idx] = inst
	}
	return s.WritePublishInstances(doc, instances)
}

// WritePublishInstances replaces the whole instance list.
func (s *Store) WritePublishInstances(doc Document, instances []Instance) error {
	if instances == nil {
		instances = []Instance{}
	}
	return s.saveKey(doc, KeyPublishInstances, instances)
}

// RemovePublishInstance drops the instance with the given id. Removing an
// unknown id is not an error.
func (s *Store) RemovePublishInstance(doc Document, id string) error {
	instances, err := s.PublishInstances(doc)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(instances, func(existing Instance) bool { return existing.ID == id })
	return s.WritePublishInstances(doc, kept)
}

// Containers returns the stored containers.
func (s *Store) Containers(doc Document) ([]Container, error) {
	block, err := s.Load(doc)
	if err != nil {
		return nil, err
	}
	return block.Containers()
}

// AddContainer stores c, replacing any container with the same name and
// namespace. The new record always ends up last.
func (s *Store) AddContainer(doc Document, c Container) error {
	if c.Name == "" {
		return errors.New("metastore: container has no name")
	}
	containers, err := s.Containers(doc)
	if err != nil {
		return err
	}
	containers = slices.DeleteFunc(containers, c.SameKey)
	containers = append(containers, c)
	return s.saveKey(doc, KeyContainers, containers)
}

// RemoveContainer drops the container keyed by name and namespace.
func (s *Store) RemoveContainer(doc Document, name, namespace string) error {
	containers, err := s.Containers(doc)
	if err != nil {
		return err
	}
	key := Container{Name: name, Namespace: namespace}
	before := len(containers)
	containers = slices.DeleteFunc(containers, key.SameKey)
	if len(containers) == before {
		return fmt.Errorf("%w: container %s/%s", services.ErrNotFound, namespace, name)
	}
	if containers == nil {
		containers = []Container{}
	}
	return s.saveKey(doc, KeyContainers, containers)
}
