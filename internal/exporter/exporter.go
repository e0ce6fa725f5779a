package exporter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"mochapipe/internal/host"
	"mochapipe/internal/services"
)

// Kind separates tracking exporters from shape exporters.
type Kind string

const (
	KindTracking Kind = "tracking"
	KindShape    Kind = "shape"
)

// FallbackVersion is the mapping table used for versions with no table.
const FallbackVersion = "2024.5"

// ShortIDLength is the number of hex characters of an exporter id used to tag
// output files.
const ShortIDLength = 8

var extensionPattern = regexp.MustCompile(`(?P<name>.+)\(\*\.(?P<ext>\w+)\)`)

// Exporter produces data files for layers of a project. The returned map is
// keyed by absolute output path; an empty map means the export failed.
type Exporter interface {
	Export(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error)
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error)

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error) {
	return f(ctx, project, layers, dest, views)
}

// Info describes a registered exporter.
type Info struct {
	ID       string
	Label    string
	Kind     Kind
	Exporter Exporter
}

// ShortID is the prefix of ID used in file names.
func (i Info) ShortID() string {
	if len(i.ID) < ShortIDLength {
		return i.ID
	}
	return i.ID[:ShortIDLength]
}

// ShortName returns the settings name of the exporter for version, or "" when
// the label is not in the table.
func (i Info) ShortName(version string) string {
	name, ok := lookup(i.Kind, version, i.Label)
	if !ok {
		return ""
	}
	return name
}

// ID returns the exporter id for label: the hex SHA256 of the label.
func ID(label string) string {
	sum := sha256.Sum256([]byte(label))
	return hex.EncodeToString(sum[:])
}

// Registry holds exporters by label.
type Registry struct {
	mu      sync.RWMutex
	byLabel map[string]Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLabel: make(map[string]Info)}
}

// Register adds an exporter. Labels must be unique.
func (r *Registry) Register(kind Kind, label string, exp Exporter) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("exporter label is required")
	}
	if exp == nil {
		return fmt.Errorf("exporter %q: nil implementation", label)
	}
	if kind != KindTracking && kind != KindShape {
		return fmt.Errorf("exporter %q: unknown kind %q", label, kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byLabel[label]; exists {
		return fmt.Errorf("exporter %q already registered", label)
	}
	r.byLabel[label] = Info{ID: ID(label), Label: label, Kind: kind, Exporter: exp}
	return nil
}

// List returns the exporters of kind sorted by label; an empty kind lists
// all of them.
func (r *Registry) List(kind Kind) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.byLabel))
	for _, info := range r.byLabel {
		if kind == "" || info.Kind == kind {
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b Info) int { return strings.Compare(a.Label, b.Label) })
	return out
}

// ByID returns the exporter with the given id or id prefix of at least
// ShortIDLength characters.
func (r *Registry) ByID(id string) (Info, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if len(id) < ShortIDLength {
		return Info{}, false
	}
	for _, info := range r.List("") {
		if strings.HasPrefix(info.ID, id) {
			return info, true
		}
	}
	return Info{}, false
}

// Select returns the exporters of kind whose id is in ids, in label order.
// Unknown ids are ignored.
func (r *Registry) Select(kind Kind, ids []string) []Info {
	var out []Info
	for _, info := range r.List(kind) {
		if slices.ContainsFunc(ids, func(id string) bool {
			id = strings.ToLower(strings.TrimSpace(id))
			return len(id) >= ShortIDLength && strings.HasPrefix(info.ID, id)
		}) {
			out = append(out, info)
		}
	}
	return out
}

// Defaults returns the ids of exporters of kind whose short name for version
// is listed in shortNames.
func (r *Registry) Defaults(kind Kind, version string, shortNames []string) []string {
	var ids []string
	for _, info := range r.List(kind) {
		if name := info.ShortName(version); name != "" && slices.Contains(shortNames, name) {
			ids = append(ids, info.ID)
		}
	}
	return ids
}

// RepresentationName maps an exporter label to its representation name for
// the host version. Unknown versions use FallbackVersion; labels missing from
// the table are returned unchanged.
func RepresentationName(kind Kind, version, label string) string {
	if name, ok := lookup(kind, version, label); ok {
		return name
	}
	return label
}

func lookup(kind Kind, version, label string) (string, bool) {
	tables := Mappings[kind]
	if tables == nil {
		return "", false
	}
	table, ok := tables[tableKey(tables, version)]
	if !ok {
		return "", false
	}
	name, ok := table[label]
	return name, ok
}

// tableKey picks the table for version: an exact match, then major.minor,
// then the major alone, then FallbackVersion.
func tableKey(tables map[string]map[string]string, version string) string {
	version = strings.TrimSpace(version)
	if _, ok := tables[version]; ok {
		return version
	}
	if v, err := host.ParseVersion(version); err == nil {
		if key := fmt.Sprintf("%d.%d", v.Major, v.Minor); tables[key] != nil {
			return key
		}
		if key := fmt.Sprintf("%d", v.Major); tables[key] != nil {
			return key
		}
	}
	return FallbackVersion
}

// ExtensionFromLabel returns the extension in a "Label (*.ext)" exporter
// label.
func ExtensionFromLabel(label string) (string, bool) {
	match := extensionPattern.FindStringSubmatch(label)
	if match == nil {
		return "", false
	}
	return match[extensionPattern.SubexpIndex("ext")], true
}

// ErrExportFailed marks an exporter that returned no files.
var ErrExportFailed = fmt.Errorf("%w: export produced no output", services.ErrExternalTool)
