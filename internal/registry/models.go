package registry

import (
	"time"

	"mochapipe/internal/publish"
)

// Version is one integrated version of a product.
type Version struct {
	ID          int64     `json:"id" yaml:"id"`
	FolderPath  string    `json:"folder_path" yaml:"folder_path"`
	ProductName string    `json:"product_name" yaml:"product_name"`
	ProductType string    `json:"product_type" yaml:"product_type"`
	Number      int       `json:"version" yaml:"version"`
	Task        string    `json:"task,omitempty" yaml:"task,omitempty"`
	SourceFile  string    `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	Dir         string    `json:"dir" yaml:"dir"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Label renders the version as v001.
func (v Version) Label() string {
	return VersionLabel(v.Number)
}

// Representation is a stored representation of a version.
type Representation struct {
	ID         int64    `json:"id" yaml:"id"`
	VersionID  int64    `json:"version_id" yaml:"version_id"`
	Name       string   `json:"name" yaml:"name"`
	Ext        string   `json:"ext" yaml:"ext"`
	Files      []string `json:"files" yaml:"files"`
	Sequence   bool     `json:"sequence" yaml:"sequence"`
	OutputName string   `json:"output_name,omitempty" yaml:"output_name,omitempty"`
}

// Transfer is a file copied into a version directory. RepresentationID is
// zero for resource transfers that belong to no representation.
type Transfer struct {
	ID               int64  `json:"id" yaml:"id"`
	VersionID        int64  `json:"version_id" yaml:"version_id"`
	RepresentationID int64  `json:"representation_id,omitempty" yaml:"representation_id,omitempty"`
	Source           string `json:"source" yaml:"source"`
	Destination      string `json:"destination" yaml:"destination"`
	Digest           string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// IntegrateRequest describes one instance to register.
type IntegrateRequest struct {
	FolderPath  string
	ProductName string
	ProductType string
	Task        string
	SourceFile  string
	// Version is the number planned for this publish; zero takes the next
	// free number.
	Version         int
	Representations []publish.Representation
	Transfers       []publish.Transfer
}

// VersionFilter narrows Versions. Empty fields match everything.
type VersionFilter struct {
	FolderPath  string
	ProductName string
}
