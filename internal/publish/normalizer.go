package publish

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"mochapipe/internal/exporter"
	"mochapipe/internal/fileutil"
	"mochapipe/internal/logging"
	"mochapipe/internal/sequence"
	"mochapipe/internal/services"
	"mochapipe/internal/textutil"
)

// ManifestExt is the extension of synthesized manifest files.
const ManifestExt = ".manifest"

// ErrMultipleSequences rejects exporter output holding more than one frame
// sequence.
var ErrMultipleSequences = fmt.Errorf("%w: exporter produced multiple sequences", services.ErrConfiguration)

// Result is the normalized form of one or more exporter outputs.
type Result struct {
	Representations []Representation
	Transfers       []Transfer
}

// Normalizer converts exporter output into representations for one
// instance.
type Normalizer struct {
	// HostVersion selects the exporter name table.
	HostVersion string
	// PublishDir is where resource transfers are copied to.
	PublishDir string
	logger     *slog.Logger
}

// NewNormalizer returns a normalizer for an instance publishing into
// publishDir.
func NewNormalizer(hostVersion, publishDir string, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		HostVersion: hostVersion,
		PublishDir:  publishDir,
		logger:      logging.NewComponentLogger(logger, "normalizer"),
	}
}

// NormalizeAll normalizes every output, stopping at the first rejection.
func (n *Normalizer) NormalizeAll(outputs []exporter.Output) (Result, error) {
	var all Result
	for _, output := range outputs {
		result, err := n.Normalize(output)
		if err != nil {
			return Result{}, err
		}
		all.Representations = append(all.Representations, result.Representations...)
		all.Transfers = append(all.Transfers, result.Transfers...)
	}
	return all, nil
}

// Normalize applies the sequence policy to one exporter output:
//
//	sequences  singles  result
//	0          0        nothing
//	0          1        single-file representation
//	0          >1       manifest representation, singles transferred
//	1          0        sequence representation
//	1          >0       sequence representation, singles transferred
//	>1         any      ErrMultipleSequences
func (n *Normalizer) Normalize(output exporter.Output) (Result, error) {
	name := exporter.RepresentationName(output.Kind, n.HostVersion, output.Name)
	collections, remainders := sequence.Assemble(output.Files)

	base := Representation{
		Name:       name,
		Ext:        output.Ext,
		StagingDir: output.StagingDir,
		OutputName: output.OutputName,
	}

	if len(collections) > 1 {
		patterns := make([]string, 0, len(collections))
		for _, c := range collections {
			patterns = append(patterns, c.String())
		}
		return Result{}, &services.PublishError{
			Marker: ErrMultipleSequences,
			Title:  fmt.Sprintf("The exporter %q produced multiple sequences and single files. This is not supported.", output.Name),
			Description: "### Issue\n\nThe exporter wrote more than one frame sequence:\n\n- " +
				strings.Join(patterns, "\n- "),
			Hint: "choose an exporter that writes a single sequence or single files",
		}
	}

	var result Result
	switch {
	case len(collections) == 1:
		rep := base
		rep.Files = collections[0].Names()
		rep.Sequence = true
		result.Representations = append(result.Representations, rep)
		transfers, err := n.transfers(output.StagingDir, remainders)
		if err != nil {
			return Result{}, err
		}
		result.Transfers = transfers

	case len(remainders) == 1:
		rep := base
		rep.Files = []string{remainders[0]}
		result.Representations = append(result.Representations, rep)

	case len(remainders) > 1:
		transfers, err := n.transfers(output.StagingDir, remainders)
		if err != nil {
			return Result{}, err
		}
		manifest, err := writeManifest(output.StagingDir, name, remainders)
		if err != nil {
			return Result{}, err
		}
		rep := base
		rep.Files = []string{manifest}
		result.Representations = append(result.Representations, rep)
		result.Transfers = transfers

	default:
		n.logger.Debug("exporter produced no files", logging.String("exporter", output.Name))
	}
	return result, nil
}

func (n *Normalizer) transfers(stagingDir string, names []string) ([]Transfer, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(n.PublishDir) == "" {
		return nil, fmt.Errorf("%w: publish dir unknown, cannot place resources", services.ErrConfiguration)
	}
	out := make([]Transfer, 0, len(names))
	for _, name := range names {
		t := Transfer{
			Source:      filepath.Join(stagingDir, name),
			Destination: filepath.Join(n.PublishDir, filepath.Base(name)),
		}
		n.logger.Debug("adding resource", logging.String("source", t.Source), logging.String("destination", t.Destination))
		out = append(out, t)
	}
	return out, nil
}

// writeManifest lists names one per line in <repName>.manifest inside
// stagingDir and returns the manifest file name.
func writeManifest(stagingDir, repName string, names []string) (string, error) {
	fileName := textutil.SanitizeFileName(repName) + ManifestExt
	content := strings.Join(names, "\n") + "\n"
	if err := fileutil.WriteFileAtomic(filepath.Join(stagingDir, fileName), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return fileName, nil
}
