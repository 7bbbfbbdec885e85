package config // import "jobwatch.app/internal/config"

// Opts holds parsed configuration options.
var Opts *Options

// Load loads configuration values from a local env file (if filename isn't
// empty) and from environment variables after that.
func Load(filename string) (err error) {
	cfg := NewParser()
	if filename != "" {
		Opts, err = cfg.ParseEnvFile(filename)
		return
	}
	Opts, err = cfg.ParseEnvironmentVariables()
	return
}

// LoadYAML loads configuration the same way Load does and merges optional
// YAML settings (channel rate limits) on top.
func LoadYAML(yamlName, envName string) error {
	if err := Load(envName); err != nil {
		return err
	}
	if yamlName != "" {
		return Opts.mergeYAML(yamlName)
	}
	return nil
}
