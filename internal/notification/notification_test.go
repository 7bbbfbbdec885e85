package notification

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/notification/mail"
)

func TestMain(m *testing.M) {
	config.Opts = config.NewOptions()
	os.Exit(m.Run())
}

func configure(t *testing.T, envs map[string]string) {
	t.Helper()
	os.Clearenv()
	for k, v := range envs {
		t.Setenv(k, v)
	}

	opts, err := config.NewParser().ParseEnvironmentVariables()
	require.NoError(t, err)
	config.Opts = opts
	t.Cleanup(func() { config.Opts = config.NewOptions() })
}

func TestSMTPConfig(t *testing.T) {
	serverEnv := map[string]string{
		"SMTP_HOST": "smtp.example.org",
		"SMTP_PORT": "465",
		"SMTP_USER": "server",
		"SMTP_PASS": "server-pass",
		"SMTP_FROM": "alerts@example.org",
	}

	tests := []struct {
		name     string
		envs     map[string]string
		settings *model.UserSettings
		want     mail.Config
	}{
		{
			name: "server wide defaults",
			envs: serverEnv,
			want: mail.Config{
				Host:     "smtp.example.org",
				Port:     465,
				Username: "server",
				Password: "server-pass",
				From:     "alerts@example.org",
			},
		},
		{
			name: "saved settings win",
			envs: serverEnv,
			settings: &model.UserSettings{
				SMTPHost:     "smtp.user.org",
				SMTPPort:     2525,
				SMTPUsername: "user",
				SMTPPassword: "user-pass",
				SMTPFrom:     "me@user.org",
			},
			want: mail.Config{
				Host:     "smtp.user.org",
				Port:     2525,
				Username: "user",
				Password: "user-pass",
				From:     "me@user.org",
			},
		},
		{
			name: "unset settings fall back per field",
			envs: serverEnv,
			settings: &model.UserSettings{
				SMTPUsername: "user",
				SMTPPassword: "user-pass",
			},
			want: mail.Config{
				Host:     "smtp.example.org",
				Port:     465,
				Username: "user",
				Password: "user-pass",
				From:     "alerts@example.org",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configure(t, tt.envs)
			got := smtpConfig(tt.settings)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Configured())
		})
	}
}

func TestSMTPConfig_notConfigured(t *testing.T) {
	configure(t, nil)
	cfg := smtpConfig(nil)
	assert.False(t, cfg.Configured())

	// Credentials are required, a host and sender alone don't send.
	cfg = smtpConfig(&model.UserSettings{
		SMTPHost: "smtp.user.org",
		SMTPFrom: "me@user.org",
	})
	assert.False(t, cfg.Configured())
}

func TestTelegramToken(t *testing.T) {
	configure(t, map[string]string{"TELEGRAM_BOT_TOKEN": "server-token"})

	assert.Equal(t, "server-token", telegramToken(nil))
	assert.Equal(t, "server-token",
		telegramToken(&model.UserSettings{}))
	assert.Equal(t, "user-token",
		telegramToken(&model.UserSettings{TelegramBotToken: "user-token"}))
}

func TestSend_notConfigured(t *testing.T) {
	configure(t, nil)
	d := NewDispatcher()

	err := d.Send(t.Context(), &model.Subscription{
		Channel: model.ChannelTelegram,
		Target:  "123",
	}, nil, &model.Offer{Title: "Offer"})
	require.ErrorIs(t, err, ErrNotConfigured)

	err = d.Send(t.Context(), &model.Subscription{
		Channel: model.ChannelEmail,
		Target:  "someone@example.org",
	}, nil, &model.Offer{Title: "Offer"})
	require.ErrorIs(t, err, ErrNotConfigured)
}
