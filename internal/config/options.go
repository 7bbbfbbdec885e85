package config // import "jobwatch.app/internal/config"

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v4"
)

const (
	defaultBaseURL     = "http://localhost"
	defaultDatabaseURL = "user=postgres password=postgres dbname=jobwatch sslmode=disable"
	defaultUpstreamURL = "https://civiweb-api-prd.azurewebsites.net/api/Offers/search"
)

// Options contains configuration options.
type Options struct {
	// ChannelLimits holds per-channel outbound rate limits, loaded from the
	// optional YAML configuration file.
	ChannelLimits map[string]ChannelLimits `yaml:"channel_limits" validate:"dive,keys,required,endkeys,required"`

	env EnvOptions

	rootURL        string
	basePath       string
	trustedProxies map[string]struct{}
}

// ChannelLimits bounds outbound notification requests for one channel.
type ChannelLimits struct {
	Rate  float64 `yaml:"rate" validate:"omitempty,min=0"`
	Burst int     `yaml:"burst" validate:"omitempty,min=0"`
}

func (self *ChannelLimits) withDefaults(rate float64, burst int) ChannelLimits {
	limits := *self
	if limits.Rate == 0 {
		limits.Rate = rate
	}
	if limits.Burst == 0 {
		limits.Burst = burst
	}
	return limits
}

type EnvOptions struct {
	LogFile     string `env:"LOG_FILE" validate:"required"`
	LogDateTime bool   `env:"LOG_DATE_TIME"`
	LogFormat   string `env:"LOG_FORMAT" validate:"required,oneof=human json text"`
	LogLevel    string `env:"LOG_LEVEL" validate:"required,oneof=debug info warning error"`

	BaseURL                    string  `env:"BASE_URL" validate:"required"`
	DatabaseURL                string  `env:"DATABASE_URL" validate:"required"`
	DatabaseURLFile            *string `env:"DATABASE_URL_FILE,file"`
	DatabaseMaxConns           int     `env:"DATABASE_MAX_CONNS" validate:"min=1"`
	DatabaseMinConns           int     `env:"DATABASE_MIN_CONNS" validate:"min=0"`
	DatabaseConnectionLifetime int     `env:"DATABASE_CONNECTION_LIFETIME" validate:"gt=0"`
	RunMigrations              bool    `env:"RUN_MIGRATIONS"`

	ListenAddr        string `env:"LISTEN_ADDR" validate:"required,hostname|hostname_port"`
	Port              string `env:"PORT"`
	HTTPServerTimeout int    `env:"HTTP_SERVER_TIMEOUT" validate:"min=1"`

	DisableHttpService bool `env:"DISABLE_HTTP_SERVICE"`
	DisableScheduler   bool `env:"DISABLE_SCHEDULER_SERVICE"`

	UpstreamURL       string `env:"UPSTREAM_URL" validate:"required,url"`
	UpstreamTimeout   int    `env:"UPSTREAM_TIMEOUT" validate:"min=1"`
	UpstreamPageLimit int    `env:"UPSTREAM_PAGE_LIMIT" validate:"min=1"`

	SyncMaxOffers     int `env:"SYNC_MAX_OFFERS" validate:"min=1"`
	CitySyncMaxOffers int `env:"CITY_SYNC_MAX_OFFERS" validate:"min=1"`
	SyncBatchSize     int `env:"SYNC_BATCH_SIZE" validate:"min=1"`
	CacheTTL          int `env:"CACHE_TTL" validate:"min=1"`

	WorkerFrequency     int    `env:"WORKER_FREQUENCY" validate:"min=1"`
	SyncFrequency       int    `env:"SYNC_FREQUENCY" validate:"min=1"`
	NotificationsPerRun int    `env:"NOTIFICATIONS_PER_RUN" validate:"min=1"`
	CronSecret          string `env:"CRON_SECRET"`
	CronSecretFile      *string `env:"CRON_SECRET_FILE,file"`

	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	SMTPHost         string  `env:"SMTP_HOST"`
	SMTPPort         int     `env:"SMTP_PORT" validate:"min=0,max=65535"`
	SMTPUsername     string  `env:"SMTP_USER"`
	SMTPPassword     string  `env:"SMTP_PASS"`
	SMTPPasswordFile *string `env:"SMTP_PASS_FILE,file"`
	SMTPFrom         string  `env:"SMTP_FROM"`

	MetricsCollector       bool     `env:"METRICS_COLLECTOR"`
	MetricsRefreshInterval int      `env:"METRICS_REFRESH_INTERVAL" validate:"min=1"`
	MetricsAllowedNetworks []string `env:"METRICS_ALLOWED_NETWORKS" validate:"dive,required"`
	MetricsUsername        string   `env:"METRICS_USERNAME"`
	MetricsPassword        string   `env:"METRICS_PASSWORD"`

	TrustedProxies []string `env:"TRUSTED_PROXIES" validate:"dive,required,ip"`
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	maxConns := max(4, runtime.GOMAXPROCS(0))

	return &Options{
		ChannelLimits: map[string]ChannelLimits{},

		env: EnvOptions{
			LogFile:   "stderr",
			LogFormat: "text",
			LogLevel:  "info",

			BaseURL:                    defaultBaseURL,
			DatabaseURL:                defaultDatabaseURL,
			DatabaseMaxConns:           maxConns,
			DatabaseMinConns:           0,
			DatabaseConnectionLifetime: 60,

			ListenAddr:        "127.0.0.1:8080",
			HTTPServerTimeout: 300,

			UpstreamURL:       defaultUpstreamURL,
			UpstreamTimeout:   30,
			UpstreamPageLimit: 1000,

			SyncMaxOffers:     20000,
			CitySyncMaxOffers: 10000,
			SyncBatchSize:     500,
			CacheTTL:          15,

			WorkerFrequency:     15,
			SyncFrequency:       60,
			NotificationsPerRun: 10,

			SMTPPort: 587,

			MetricsRefreshInterval: 60,
			MetricsAllowedNetworks: []string{"127.0.0.1/8"},
			TrustedProxies:         []string{"127.0.0.1"},
		},

		rootURL: defaultBaseURL,
	}
}

func (o *Options) init() (err error) {
	if o.env.Port != "" {
		o.env.ListenAddr = ":" + o.env.Port
	}

	if err := Validator().Struct(&o.env); err != nil {
		return fmt.Errorf("config: failed validate: %w", err)
	}

	o.applyFileStrings()
	o.makeTrustedProxies()

	o.env.BaseURL, o.rootURL, o.basePath, err = parseBaseURL(o.env.BaseURL)
	return err
}

func (o *Options) applyFileStrings() {
	opts := []struct {
		From *string
		To   *string
	}{
		{o.env.DatabaseURLFile, &o.env.DatabaseURL},
		{o.env.CronSecretFile, &o.env.CronSecret},
		{o.env.SMTPPasswordFile, &o.env.SMTPPassword},
	}
	for _, opt := range opts {
		if opt.From != nil {
			*opt.To = *opt.From
		}
	}
}

func (o *Options) makeTrustedProxies() {
	o.trustedProxies = make(map[string]struct{}, len(o.env.TrustedProxies))
	for _, ip := range o.env.TrustedProxies {
		o.trustedProxies[ip] = struct{}{}
	}
}

func (o *Options) mergeYAML(filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: failed read %q: %w", filename, err)
	}

	if err := yaml.Unmarshal(b, o); err != nil {
		return fmt.Errorf("config: failed parse %q: %w", filename, err)
	}

	if err := Validator().StructPartial(o, "ChannelLimits"); err != nil {
		return fmt.Errorf("config: failed validate %q: %w", filename, err)
	}
	return nil
}

func parseBaseURL(value string) (string, string, string, error) {
	if value == "" {
		return defaultBaseURL, defaultBaseURL, "", nil
	}

	value = strings.TrimSuffix(value, "/")
	parsedURL, err := url.Parse(value)
	if err != nil {
		return "", "", "", fmt.Errorf("config: invalid BASE_URL: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "https" && scheme != "http" {
		return "", "", "",
			errors.New("config: invalid BASE_URL: scheme must be http or https")
	}

	basePath := parsedURL.Path
	parsedURL.Path = ""
	return value, parsedURL.String(), basePath, nil
}

func (o *Options) LogFile() string     { return o.env.LogFile }
func (o *Options) LogDateTime() bool   { return o.env.LogDateTime }
func (o *Options) LogFormat() string   { return o.env.LogFormat }
func (o *Options) LogLevel() string    { return o.env.LogLevel }
func (o *Options) SetLogLevel(l string) { o.env.LogLevel = l }

// BaseURL returns the application base URL with path.
func (o *Options) BaseURL() string { return o.env.BaseURL }

// RootURL returns the base URL without path.
func (o *Options) RootURL() string { return o.rootURL }

// BasePath returns the application base path according to the base URL.
func (o *Options) BasePath() string { return o.basePath }

// IsDefaultDatabaseURL returns true if the default database URL is used.
func (o *Options) IsDefaultDatabaseURL() bool {
	return o.env.DatabaseURL == defaultDatabaseURL
}

func (o *Options) DatabaseURL() string   { return o.env.DatabaseURL }
func (o *Options) DatabaseMaxConns() int { return o.env.DatabaseMaxConns }
func (o *Options) DatabaseMinConns() int { return o.env.DatabaseMinConns }

// DatabaseConnectionLifetime returns the maximum amount of time a connection
// may be reused.
func (o *Options) DatabaseConnectionLifetime() time.Duration {
	return time.Duration(o.env.DatabaseConnectionLifetime) * time.Minute
}

func (o *Options) RunMigrations() bool { return o.env.RunMigrations }

func (o *Options) ListenAddr() string { return o.env.ListenAddr }

func (o *Options) HTTPServerTimeout() time.Duration {
	return time.Duration(o.env.HTTPServerTimeout) * time.Second
}

func (o *Options) HasHTTPService() bool      { return !o.env.DisableHttpService }
func (o *Options) HasSchedulerService() bool { return !o.env.DisableScheduler }

func (o *Options) UpstreamURL() string { return o.env.UpstreamURL }

func (o *Options) UpstreamTimeout() time.Duration {
	return time.Duration(o.env.UpstreamTimeout) * time.Second
}

// UpstreamPageLimit returns the page size used to drain the upstream catalog.
func (o *Options) UpstreamPageLimit() int { return o.env.UpstreamPageLimit }

// SyncMaxOffers returns the hard safety ceiling for a full offer sync.
func (o *Options) SyncMaxOffers() int { return o.env.SyncMaxOffers }

// CitySyncMaxOffers returns the hard safety ceiling for a city-only sync.
func (o *Options) CitySyncMaxOffers() int { return o.env.CitySyncMaxOffers }

// SyncBatchSize returns how many offers one upsert batch carries.
func (o *Options) SyncBatchSize() int { return o.env.SyncBatchSize }

// CacheTTL returns how long the offer cache stays fresh.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.env.CacheTTL) * time.Minute
}

func (o *Options) WorkerFrequency() time.Duration {
	return time.Duration(o.env.WorkerFrequency) * time.Minute
}

func (o *Options) SyncFrequency() time.Duration {
	return time.Duration(o.env.SyncFrequency) * time.Minute
}

// NotificationsPerRun returns the per-run, per-subscription cap on
// notification attempts.
func (o *Options) NotificationsPerRun() int { return o.env.NotificationsPerRun }

// CronSecret returns the shared secret guarding the cron trigger endpoints.
// An empty secret disables those endpoints.
func (o *Options) CronSecret() string { return o.env.CronSecret }

func (o *Options) TelegramBotToken() string { return o.env.TelegramBotToken }
func (o *Options) SMTPHost() string         { return o.env.SMTPHost }
func (o *Options) SMTPPort() int            { return o.env.SMTPPort }
func (o *Options) SMTPUsername() string     { return o.env.SMTPUsername }
func (o *Options) SMTPPassword() string     { return o.env.SMTPPassword }
func (o *Options) SMTPFrom() string         { return o.env.SMTPFrom }

func (o *Options) HasMetricsCollector() bool { return o.env.MetricsCollector }

func (o *Options) MetricsRefreshInterval() time.Duration {
	return time.Duration(o.env.MetricsRefreshInterval) * time.Second
}

func (o *Options) MetricsAllowedNetworks() []string {
	return o.env.MetricsAllowedNetworks
}

func (o *Options) MetricsUsername() string { return o.env.MetricsUsername }
func (o *Options) MetricsPassword() string { return o.env.MetricsPassword }

// TrustedProxy reports whether the given IP belongs to a trusted
// reverse-proxy.
func (o *Options) TrustedProxy(ip string) bool {
	_, ok := o.trustedProxies[ip]
	return ok
}

// ChannelLimit returns the outbound rate limit for the given notification
// channel, falling back to one request per second with a small burst.
func (o *Options) ChannelLimit(channel string) ChannelLimits {
	limits, ok := o.ChannelLimits[channel]
	if !ok {
		limits = ChannelLimits{}
	}
	return limits.withDefaults(1, 3)
}
