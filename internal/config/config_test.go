package config // import "jobwatch.app/internal/config"

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseEnvironmentVariables(t *testing.T) *Options {
	t.Helper()
	parser := NewParser()
	opts, err := parser.ParseEnvironmentVariables()
	require.NoError(t, err)
	require.NotNil(t, opts)
	return opts
}

func TestLogFileDefaultValue(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, NewOptions().env.LogFile, opts.env.LogFile)
}

func TestLogFileWithCustomFilename(t *testing.T) {
	os.Clearenv()
	const want = "foobar.log"
	t.Setenv("LOG_FILE", want)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.env.LogFile)
}

func TestLogLevelWithCustomValue(t *testing.T) {
	os.Clearenv()
	const want = "warning"
	t.Setenv("LOG_LEVEL", want)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.env.LogLevel)
}

func TestLogLevelWithInvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_LEVEL", "invalid")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "oneof")
}

func TestLogFormatWithInvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_FORMAT", "invalid")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "failed on the 'oneof' tag")
}

func TestCustomBaseURL(t *testing.T) {
	os.Clearenv()
	const want = "http://example.org"
	t.Setenv("BASE_URL", want)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.env.BaseURL)
	assert.Equal(t, want, opts.rootURL)
	assert.Empty(t, opts.basePath)
}

func TestCustomBaseURLWithTrailingSlash(t *testing.T) {
	os.Clearenv()
	t.Setenv("BASE_URL", "http://example.org/folder/")
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, "http://example.org/folder", opts.BaseURL())
	assert.Equal(t, "http://example.org", opts.RootURL())
	assert.Equal(t, "/folder", opts.BasePath())
}

func TestBaseURLWithInvalidScheme(t *testing.T) {
	os.Clearenv()
	t.Setenv("BASE_URL", "ftp://example.org")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "scheme must be http or https")
}

func TestDefaultDatabaseURL(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, defaultDatabaseURL, opts.DatabaseURL())
	assert.True(t, opts.IsDefaultDatabaseURL())
}

func TestDatabaseURLFromFile(t *testing.T) {
	os.Clearenv()
	const want = "user=app dbname=jobwatch"
	path := filepath.Join(t.TempDir(), "db_url")
	require.NoError(t, os.WriteFile(path, []byte(want), 0o600))
	t.Setenv("DATABASE_URL_FILE", path)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.DatabaseURL())
	assert.False(t, opts.IsDefaultDatabaseURL())
}

func TestPortOverridesListenAddr(t *testing.T) {
	os.Clearenv()
	t.Setenv("LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("PORT", "3000")
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, ":3000", opts.ListenAddr())
}

func TestWorkerFrequency(t *testing.T) {
	os.Clearenv()
	t.Setenv("WORKER_FREQUENCY", "5")
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, "5m0s", opts.WorkerFrequency().String())
}

func TestSyncLimitsRejectZero(t *testing.T) {
	os.Clearenv()
	t.Setenv("SYNC_MAX_OFFERS", "0")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "failed on the 'min' tag")
}

func TestCronSecretFromFile(t *testing.T) {
	os.Clearenv()
	const want = "s3cret"
	path := filepath.Join(t.TempDir(), "cron_secret")
	require.NoError(t, os.WriteFile(path, []byte(want), 0o600))
	t.Setenv("CRON_SECRET_FILE", path)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.CronSecret())
}

func TestTrustedProxies(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")
	opts := parseEnvironmentVariables(t)
	assert.True(t, opts.TrustedProxy("10.0.0.1"))
	assert.True(t, opts.TrustedProxy("10.0.0.2"))
	assert.False(t, opts.TrustedProxy("10.0.0.3"))
}

func TestTrustedProxiesRejectsHostname(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRUSTED_PROXIES", "proxy.local")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "failed on the 'ip' tag")
}

func TestMergeYAMLChannelLimits(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
channel_limits:
  telegram:
    rate: 0.5
    burst: 2
`), 0o600))

	opts := parseEnvironmentVariables(t)
	require.NoError(t, opts.mergeYAML(path))

	limits := opts.ChannelLimit("telegram")
	assert.InEpsilon(t, 0.5, limits.Rate, 0.0001)
	assert.Equal(t, 2, limits.Burst)

	// Unconfigured channels fall back to the defaults.
	limits = opts.ChannelLimit("discord")
	assert.InEpsilon(t, 1.0, limits.Rate, 0.0001)
	assert.Equal(t, 3, limits.Burst)
}

func TestMetricsAllowedNetworksDefault(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, []string{"127.0.0.1/8"}, opts.MetricsAllowedNetworks())
}
