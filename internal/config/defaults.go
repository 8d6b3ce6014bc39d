package config

const (
	defaultConfigPath    = "~/.config/ridiexport/config.toml"
	defaultAuthFile      = "~/.ridi_auth.json"
	defaultStateDir      = "~/.local/share/ridiexport"
	defaultLogDir        = "~/.local/share/ridiexport/logs"
	defaultLoginURL      = "https://ridibooks.com/account/login"
	defaultDevicesAPIURL = "https://account.ridibooks.com/api/user-devices/app"
	defaultDRMHelper     = "ridi-drm-helper"
	defaultOutputDir     = "."
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AuthFile: defaultAuthFile,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Auth: Auth{
			LoginURL:      defaultLoginURL,
			DevicesAPIURL: defaultDevicesAPIURL,
		},
		DRM: DRM{
			Helper: defaultDRMHelper,
		},
		Export: Export{
			OutputDir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
