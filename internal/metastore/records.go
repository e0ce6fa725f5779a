package metastore

import (
	"bytes"
	"encoding/json"
	"maps"
)

// ContainerID tags container records written by loaders.
const ContainerID = "ayon.load.container"

// Container records an external asset loaded into the project.
type Container struct {
	Name           string `json:"name"`
	ID             string `json:"id"`
	Namespace      string `json:"namespace"`
	Loader         string `json:"loader,omitempty"`
	Representation string `json:"representation,omitempty"`
	ObjectName     string `json:"objectName,omitempty"`
	Timestamp      int64  `json:"timestamp"`
	Version        string `json:"version,omitempty"`
}

// SameKey reports whether c and other share the (name, namespace) key.
func (c Container) SameKey(other Container) bool {
	return c.Name == other.Name && c.Namespace == other.Namespace
}

// Instance is a unit of work marked for publishing. Fields other than the
// named ones are kept in Extra and written back flat, so creator payloads
// round-trip untouched.
type Instance struct {
	ID                string         `json:"instance_id"`
	CreatorIdentifier string         `json:"creator_identifier"`
	ProductType       string         `json:"productType,omitempty"`
	ProductName       string         `json:"productName,omitempty"`
	Variant           string         `json:"variant,omitempty"`
	FolderPath        string         `json:"folderPath,omitempty"`
	Task              string         `json:"task,omitempty"`
	Active            *bool          `json:"active,omitempty"`
	CreatorAttributes map[string]any `json:"creator_attributes,omitempty"`
	Extra             map[string]any `json:"-"`
}

// IsActive treats a missing flag as active.
func (i Instance) IsActive() bool {
	return i.Active == nil || *i.Active
}

type instanceFields Instance

var instanceKnownKeys = map[string]struct{}{
	"instance_id":        {},
	"creator_identifier": {},
	"productType":        {},
	"productName":        {},
	"variant":            {},
	"folderPath":         {},
	"task":               {},
	"active":             {},
	"creator_attributes": {},
}

// MarshalJSON writes the named fields and Extra as one flat object.
func (i Instance) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(instanceFields(i))
	if err != nil {
		return nil, err
	}
	if len(i.Extra) == 0 {
		return known, nil
	}
	merged := map[string]any{}
	for key, value := range i.Extra {
		if _, reserved := instanceKnownKeys[key]; reserved {
			continue
		}
		merged[key] = value
	}
	var fields map[string]any
	if err := decodeNumbers(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(merged, fields)
	return json.Marshal(merged)
}

// UnmarshalJSON reads the named fields and collects the rest into Extra.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var fields instanceFields
	if err := decodeNumbers(data, &fields); err != nil {
		return err
	}
	var all map[string]any
	if err := decodeNumbers(data, &all); err != nil {
		return err
	}
	for key := range instanceKnownKeys {
		delete(all, key)
	}
	*i = Instance(fields)
	if len(all) > 0 {
		i.Extra = all
	}
	return nil
}

func decodeNumbers(data []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(dst)
}
