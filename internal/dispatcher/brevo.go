package dispatcher

import (
	"net/http"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

const brevoBaseURL = "https://api.brevo.com"

type brevoMail struct {
	Sender      model.Address   `json:"sender"`
	To          []model.Address `json:"to"`
	ReplyTo     *model.Address  `json:"replyTo,omitempty"`
	Subject     string          `json:"subject"`
	HTMLContent string          `json:"htmlContent"`
	TextContent string          `json:"textContent"`
}

// NewBrevo builds a provider for the Brevo transactional smtp/email API.
func NewBrevo(pc config.ProviderConfig, dc config.DeliveryConfig, client *http.Client) *HTTPProvider {
	key := pc.APIKey
	return &HTTPProvider{
		name:   "brevo",
		url:    endpoint(pc.BaseURL, brevoBaseURL, "/v3/smtp/email"),
		sender: senderFor(pc, dc),
		client: client,
		auth:   func(h http.Header) { h.Set("api-key", key) },
		payload: func(sender model.Address, e model.Email) any {
			return brevoMail{
				Sender:      sender,
				To:          e.To,
				ReplyTo:     e.ReplyTo,
				Subject:     e.Subject,
				HTMLContent: e.HTML,
				TextContent: e.Text,
			}
		},
	}
}
