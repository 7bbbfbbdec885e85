package version // import "jobwatch.app/internal/version"

// Variables populated at build time when using LD_FLAGS.
var (
	Commit    = "Unknown (built outside VCS)"
	BuildDate = "Unknown (built outside VCS)"
	Version   = "Development Version"
)
