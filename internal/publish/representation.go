package publish

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Representation is one published form of an instance.
type Representation struct {
	Name       string
	Ext        string
	Files      []string
	Sequence   bool
	StagingDir string
	OutputName string
}

type representationJSON struct {
	Name       string `json:"name"`
	Ext        string `json:"ext"`
	Files      any    `json:"files"`
	StagingDir string `json:"stagingDir"`
	OutputName string `json:"outputName,omitempty"`
}

// MarshalJSON writes files as a string for single-file representations and
// as a list for sequences.
func (r Representation) MarshalJSON() ([]byte, error) {
	out := representationJSON{
		Name:       r.Name,
		Ext:        r.Ext,
		StagingDir: r.StagingDir,
		OutputName: r.OutputName,
	}
	if !r.Sequence && len(r.Files) == 1 {
		out.Files = r.Files[0]
	} else {
		out.Files = r.Files
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts files as a string or a list.
func (r *Representation) UnmarshalJSON(data []byte) error {
	var raw struct {
		representationJSON
		Files json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Representation{
		Name:       raw.Name,
		Ext:        raw.Ext,
		StagingDir: raw.StagingDir,
		OutputName: raw.OutputName,
	}
	if len(raw.Files) == 0 || string(raw.Files) == "null" {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw.Files, &single); err == nil {
		r.Files = []string{single}
		return nil
	}
	if err := json.Unmarshal(raw.Files, &r.Files); err != nil {
		return fmt.Errorf("representation files: %w", err)
	}
	r.Sequence = true
	return nil
}

// Paths returns the staged file paths.
func (r Representation) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for _, name := range r.Files {
		paths = append(paths, filepath.Join(r.StagingDir, name))
	}
	return paths
}

// Transfer copies an auxiliary resource next to the published version.
type Transfer struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}
