package config

const (
	defaultStagingDir         = "~/.local/share/mochapipe/staging"
	defaultPublishRoot        = "~/.local/share/mochapipe/publish"
	defaultLogDir             = "~/.local/share/mochapipe/logs"
	defaultRegistryPath       = "~/.local/share/mochapipe/registry.db"
	defaultHostName           = "mochapro"
	defaultHostVersion        = "2024.5"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultStagingMaxAgeHours = 72
	defaultTrackingExporter   = "NukeAscii"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:   defaultStagingDir,
			PublishRoot:  defaultPublishRoot,
			LogDir:       defaultLogDir,
			RegistryPath: defaultRegistryPath,
		},
		Host: Host{
			Name:    defaultHostName,
			Version: defaultHostVersion,
		},
		Create: Create{
			TrackingPoints: CreatorSettings{
				Enabled:          true,
				DefaultExporters: []string{defaultTrackingExporter},
			},
			ShapeData: CreatorSettings{
				Enabled:          true,
				DefaultExporters: []string{},
			},
		},
		Publish: Publish{
			VerifyCopies:       true,
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
