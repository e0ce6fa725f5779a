package host

import (
	"fmt"
	"path/filepath"
	"strings"

	"mochapipe/internal/services"
)

// ErrUnsupportedPlatform is returned for platforms with no known layout.
var ErrUnsupportedPlatform = fmt.Errorf("%w: platform", services.ErrUnsupported)

// Install lists the paths of an application installation the exporter
// subprocess needs.
type Install struct {
	Executable     string
	Dir            string
	Python         string
	ExporterScript string
}

// ResolveInstall derives the bundled python interpreter and export script
// from the application executable. The install root is two levels above the
// executable. platform takes runtime.GOOS values.
func ResolveInstall(platform, executable string) (Install, error) {
	executable = strings.TrimSpace(executable)
	if executable == "" {
		return Install{}, fmt.Errorf("%w: application executable not configured", services.ErrConfiguration)
	}
	dir := filepath.Dir(filepath.Dir(executable))
	inst := Install{Executable: executable, Dir: dir}

	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "windows":
		inst.Python = filepath.Join(dir, "python", "python.exe")
		inst.ExporterScript = filepath.Join(dir, "python", "mochaexport.py")
	case "darwin":
		inst.Python = filepath.Join(dir, "python3")
		inst.ExporterScript = filepath.Join(dir, "mochaexport.py")
	case "linux":
		inst.Python = filepath.Join(dir, "python", "bin", "python3")
		inst.ExporterScript = filepath.Join(dir, "python", "mochaexport.py")
	default:
		return Install{}, fmt.Errorf("%w %q", ErrUnsupportedPlatform, platform)
	}
	return inst, nil
}
