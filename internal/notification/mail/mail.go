package mail // import "jobwatch.app/internal/notification/mail"

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wneessen/go-mail"

	"jobwatch.app/internal/model"
)

// Config holds the SMTP relay settings of one sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether the config is complete enough to send. The
// relay host, credentials and a sender address are all required before any
// dial is attempted.
func (c *Config) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" &&
		c.From != ""
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

type Client struct {
	cfg Config
}

// SendOffer mails one offer to the given address.
func (c *Client) SendOffer(ctx context.Context, to string,
	offer *model.Offer, label string,
) error {
	missionType := offer.MissionType
	if missionType == "" {
		missionType = model.MissionTypeVIE
	}

	msg := mail.NewMsg()
	if err := msg.From(c.cfg.From); err != nil {
		return fmt.Errorf("notification/mail: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notification/mail: to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("🆕 Nouvelle offre %s: %s", missionType,
		offer.Title))
	msg.SetBodyString(mail.TypeTextHTML, htmlBody(offer, label))

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password))
	if err != nil {
		return fmt.Errorf("notification/mail: new SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notification/mail: send to %q: %w", to, err)
	}
	return nil
}

func htmlBody(offer *model.Offer, label string) string {
	esc := html.EscapeString

	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	fmt.Fprintf(&b, `<h2 style="color: #4f46e5;">🆕 Nouvelle offre %s</h2>`,
		esc(offer.MissionType))
	b.WriteString(`<div style="background: #f8fafc; border-radius: 12px; padding: 20px; margin: 16px 0;">`)
	fmt.Fprintf(&b, `<h3 style="margin-top: 0; color: #1e293b;">%s</h3>`,
		esc(offer.Title))
	fmt.Fprintf(&b, `<p><strong>🏢 Entreprise:</strong> %s</p>`,
		esc(offer.OrganizationName))
	fmt.Fprintf(&b, `<p><strong>📍 Lieu:</strong> %s, %s</p>`,
		esc(offer.City()), esc(offer.Country()))
	if !offer.StartDate.IsZero() {
		fmt.Fprintf(&b, `<p><strong>📅 Début:</strong> %s</p>`,
			offer.StartDate.Format("02/01/2006"))
	}
	fmt.Fprintf(&b, `<p><strong>⏱️ Durée:</strong> %d mois</p>`,
		offer.DurationMonths)
	fmt.Fprintf(&b, `<p><strong>💶 Indemnité:</strong> %.0f€/mois</p>`,
		offer.Stipend)
	b.WriteString(`</div>`)
	fmt.Fprintf(&b,
		`<p><a href="%s" style="display: inline-block; background: #4f46e5; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none;">Voir l'offre</a></p>`,
		offer.Link())
	fmt.Fprintf(&b,
		`<p style="color: #64748b; font-size: 14px;">Alerte: %s</p>`,
		esc(label))
	b.WriteString(`</div>`)
	return b.String()
}
