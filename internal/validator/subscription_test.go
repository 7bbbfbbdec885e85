package validator // import "jobwatch.app/internal/validator"

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/model"
)

func TestValidateSubscriptionCreation(t *testing.T) {
	tests := []struct {
		name    string
		request model.SubscriptionCreationRequest
		wantErr string
	}{
		{
			name: "telegram chat id",
			request: model.SubscriptionCreationRequest{
				Label:   "VIE in Singapore",
				Channel: model.ChannelTelegram,
				Target:  "123456789",
			},
		},
		{
			name: "telegram channel name",
			request: model.SubscriptionCreationRequest{
				Label:   "VIE in Singapore",
				Channel: model.ChannelTelegram,
				Target:  "@vie_alerts",
			},
		},
		{
			name: "discord webhook",
			request: model.SubscriptionCreationRequest{
				Label:   "Berlin offers",
				Channel: model.ChannelDiscord,
				Target:  "https://discord.com/api/webhooks/1/abc",
			},
		},
		{
			name: "email address",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "someone@example.org",
			},
		},
		{
			name: "missing label",
			request: model.SubscriptionCreationRequest{
				Label:   "  ",
				Channel: model.ChannelEmail,
				Target:  "someone@example.org",
			},
			wantErr: "label is required",
		},
		{
			name: "unknown channel",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: "pigeon",
				Target:  "roof",
			},
			wantErr: "unknown notification channel",
		},
		{
			name: "missing target",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "",
			},
			wantErr: "target is required",
		},
		{
			name: "telegram target not a chat id",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelTelegram,
				Target:  "not-a-chat",
			},
			wantErr: "chat id or a @channel name",
		},
		{
			name: "discord target not a URL",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelDiscord,
				Target:  "webhooks/1/abc",
			},
			wantErr: "webhook URL",
		},
		{
			name: "email target without at sign",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "example.org",
			},
			wantErr: "email address",
		},
		{
			name: "bad start date filter",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "someone@example.org",
				Filters: model.SubscriptionFilters{
					StartDateAfter: "next tuesday",
				},
			},
			wantErr: "invalid start date filter",
		},
		{
			name: "negative stipend",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "someone@example.org",
				Filters: model.SubscriptionFilters{
					MinStipend: ptr(-1.0),
				},
			},
			wantErr: "must not be negative",
		},
		{
			name: "stipend range inverted",
			request: model.SubscriptionCreationRequest{
				Label:   "Everything",
				Channel: model.ChannelEmail,
				Target:  "someone@example.org",
				Filters: model.SubscriptionFilters{
					MinStipend: ptr(2000.0),
					MaxStipend: ptr(1000.0),
				},
			},
			wantErr: "greater than maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubscriptionCreation(&tt.request)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateTestNotification(t *testing.T) {
	require.NoError(t, ValidateTestNotification(
		&model.TestNotificationRequest{
			Channel: model.ChannelDiscord,
			Target:  "https://discord.com/api/webhooks/1/abc",
		}))

	require.ErrorContains(t, ValidateTestNotification(
		&model.TestNotificationRequest{Channel: "pigeon", Target: "roof"}),
		"unknown notification channel")

	require.ErrorContains(t, ValidateTestNotification(
		&model.TestNotificationRequest{
			Channel: model.ChannelTelegram,
			Target:  "not-a-chat",
		}), "chat id or a @channel name")
}

func TestValidateSubscriptionModification(t *testing.T) {
	sub := &model.Subscription{
		Label:   "Everything",
		Channel: model.ChannelTelegram,
		Target:  "123456789",
	}

	t.Run("patched target validated against existing channel", func(t *testing.T) {
		err := ValidateSubscriptionModification(
			&model.SubscriptionModificationRequest{Target: ptr("not-a-chat")},
			sub)
		require.ErrorContains(t, err, "chat id or a @channel name")
	})

	t.Run("channel and target patched together", func(t *testing.T) {
		err := ValidateSubscriptionModification(
			&model.SubscriptionModificationRequest{
				Channel: ptr(model.ChannelEmail),
				Target:  ptr("someone@example.org"),
			}, sub)
		require.NoError(t, err)
	})

	t.Run("empty label rejected", func(t *testing.T) {
		err := ValidateSubscriptionModification(
			&model.SubscriptionModificationRequest{Label: ptr(" ")}, sub)
		require.ErrorContains(t, err, "label is required")
	})

	t.Run("no changes is valid", func(t *testing.T) {
		err := ValidateSubscriptionModification(
			&model.SubscriptionModificationRequest{}, sub)
		assert.NoError(t, err)
	})
}

func ptr[T any](v T) *T { return &v }
