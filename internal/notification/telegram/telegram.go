package telegram // import "jobwatch.app/internal/notification/telegram"

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobwatch.app/internal/model"
)

const defaultClientTimeout = 10 * time.Second

// NewClient returns a Telegram client bound to one bot token. The getMe
// handshake is skipped on purpose: tokens come from user settings, so a bad
// one should surface as a send error, not at construction time.
func NewClient(token string) *Client {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint)
}

func NewClientWithEndpoint(token, endpoint string) *Client {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Buffer: 100,
		Client: &http.Client{Timeout: defaultClientTimeout},
	}
	bot.SetAPIEndpoint(endpoint)
	return &Client{bot: bot}
}

type Client struct {
	bot *tgbotapi.BotAPI
}

// SendOffer posts one offer to the chat or channel in target. Numeric
// targets are chat IDs, anything else is a channel username.
func (c *Client) SendOffer(_ context.Context, target string,
	offer *model.Offer, label string,
) error {
	text := messageText(offer, label)

	var msg tgbotapi.MessageConfig
	if chatID, err := strconv.ParseInt(target, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(chatID, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(target, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("notification/telegram: send to %q: %w",
			target, err)
	}
	return nil
}

func messageText(offer *model.Offer, label string) string {
	missionType := offer.MissionType
	if missionType == "" {
		missionType = model.MissionTypeVIE
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *Nouvelle offre %s*\n\n", missionType)
	fmt.Fprintf(&b, "📋 *%s*\n", offer.Title)
	fmt.Fprintf(&b, "🏢 %s\n", offer.OrganizationName)
	fmt.Fprintf(&b, "📍 %s, %s\n", offer.City(), offer.Country())
	if !offer.StartDate.IsZero() {
		fmt.Fprintf(&b, "📅 Début: %s\n", offer.StartDate.Format("02/01/2006"))
	}
	fmt.Fprintf(&b, "⏱️ Durée: %d mois\n", offer.DurationMonths)
	fmt.Fprintf(&b, "💶 Indemnité: %.0f€/mois\n", offer.Stipend)
	if offer.Teleworking {
		b.WriteString("🏠 Télétravail disponible\n")
	}
	fmt.Fprintf(&b, "\n🔗 [Voir l'offre](%s)", offer.Link())
	if label != "" {
		fmt.Fprintf(&b, "\n\n_Alerte: %s_", label)
	}
	return b.String()
}
