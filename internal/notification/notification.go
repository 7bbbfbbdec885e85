// Package notification routes new offer alerts to their delivery channels.
package notification // import "jobwatch.app/internal/notification"

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/metric"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/notification/discord"
	"jobwatch.app/internal/notification/mail"
	"jobwatch.app/internal/notification/telegram"
)

// ErrNotConfigured means the channel has no usable credentials, neither in
// the user settings nor server wide.
var ErrNotConfigured = errors.New("notification: channel not configured")

// NewDispatcher returns a dispatcher with one rate limiter per channel,
// configured from the channel_limits section of the config.
func NewDispatcher() *Dispatcher {
	channels := []string{
		model.ChannelTelegram, model.ChannelDiscord, model.ChannelEmail,
	}

	d := &Dispatcher{limiters: make(map[string]*rate.Limiter, len(channels))}
	for _, channel := range channels {
		l := config.Opts.ChannelLimit(channel)
		d.limiters[channel] = rate.NewLimiter(rate.Limit(l.Rate), l.Burst)
	}
	return d
}

// Dispatcher sends offer notifications. Credentials resolve in layers: the
// owner's saved settings win over server wide environment config.
type Dispatcher struct {
	limiters map[string]*rate.Limiter
}

// Send delivers one offer through the subscription's channel to its target.
// settings may be nil when the owner never saved any.
func (d *Dispatcher) Send(ctx context.Context, sub *model.Subscription,
	settings *model.UserSettings, offer *model.Offer,
) error {
	if limiter := d.limiters[sub.Channel]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("notification: wait for %s rate limiter: %w",
				sub.Channel, err)
		}
	}

	err := d.send(ctx, sub, settings, offer)
	if config.Opts.HasMetricsCollector() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metric.NotificationsSent.WithLabelValues(sub.Channel, status).Inc()
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, sub *model.Subscription,
	settings *model.UserSettings, offer *model.Offer,
) error {
	switch sub.Channel {
	case model.ChannelTelegram:
		token := telegramToken(settings)
		if token == "" {
			return fmt.Errorf("%w: telegram bot token", ErrNotConfigured)
		}
		return telegram.NewClient(token).
			SendOffer(ctx, sub.Target, offer, sub.Label)

	case model.ChannelDiscord:
		return discord.NewClient().
			SendOffer(ctx, sub.Target, offer, sub.Label)

	case model.ChannelEmail:
		cfg := smtpConfig(settings)
		if !cfg.Configured() {
			return fmt.Errorf("%w: SMTP relay", ErrNotConfigured)
		}
		return mail.NewClient(cfg).
			SendOffer(ctx, sub.Target, offer, sub.Label)
	}
	return fmt.Errorf("notification: unknown channel %q", sub.Channel)
}

// telegramToken resolves the bot token: the owner's saved token wins over
// the server wide one.
func telegramToken(settings *model.UserSettings) string {
	if settings != nil && settings.TelegramBotToken != "" {
		return settings.TelegramBotToken
	}
	return config.Opts.TelegramBotToken()
}

func smtpConfig(settings *model.UserSettings) mail.Config {
	cfg := mail.Config{
		Host:     config.Opts.SMTPHost(),
		Port:     config.Opts.SMTPPort(),
		Username: config.Opts.SMTPUsername(),
		Password: config.Opts.SMTPPassword(),
		From:     config.Opts.SMTPFrom(),
	}
	if settings == nil {
		return cfg
	}

	if settings.SMTPHost != "" {
		cfg.Host = settings.SMTPHost
	}
	if settings.SMTPPort != 0 {
		cfg.Port = settings.SMTPPort
	}
	if settings.SMTPUsername != "" {
		cfg.Username = settings.SMTPUsername
	}
	if settings.SMTPPassword != "" {
		cfg.Password = settings.SMTPPassword
	}
	if settings.SMTPFrom != "" {
		cfg.From = settings.SMTPFrom
	}
	return cfg
}
