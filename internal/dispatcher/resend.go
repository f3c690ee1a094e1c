package dispatcher

import (
	"net/http"
	"net/mail"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

const resendBaseURL = "https://api.resend.com"

type resendMail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// formatAddress renders an RFC 5322 mailbox. The display name is quoted so
// commas or angle brackets typed by a submitter cannot add recipients.
func formatAddress(a model.Address) string {
	if a.Name == "" {
		return a.Email
	}
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// NewResend builds a provider for the Resend emails API.
func NewResend(pc config.ProviderConfig, dc config.DeliveryConfig, client *http.Client) *HTTPProvider {
	key := pc.APIKey
	return &HTTPProvider{
		name:   "resend",
		url:    endpoint(pc.BaseURL, resendBaseURL, "/emails"),
		sender: senderFor(pc, dc),
		client: client,
		auth:   func(h http.Header) { h.Set("Authorization", "Bearer "+key) },
		payload: func(sender model.Address, e model.Email) any {
			m := resendMail{
				From:    formatAddress(sender),
				Subject: e.Subject,
				HTML:    e.HTML,
				Text:    e.Text,
			}
			for _, to := range e.To {
				m.To = append(m.To, formatAddress(to))
			}
			if e.ReplyTo != nil {
				m.ReplyTo = formatAddress(*e.ReplyTo)
			}
			return m
		},
	}
}
