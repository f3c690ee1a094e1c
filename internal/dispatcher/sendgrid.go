package dispatcher

import (
	"net/http"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

const sendGridBaseURL = "https://api.sendgrid.com"

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []model.Address `json:"to"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             model.Address             `json:"from"`
	ReplyTo          *model.Address            `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// NewSendGrid builds a provider for the SendGrid v3 mail/send API.
func NewSendGrid(pc config.ProviderConfig, dc config.DeliveryConfig, client *http.Client) *HTTPProvider {
	key := pc.APIKey
	return &HTTPProvider{
		name:   "sendgrid",
		url:    endpoint(pc.BaseURL, sendGridBaseURL, "/v3/mail/send"),
		sender: senderFor(pc, dc),
		client: client,
		auth:   func(h http.Header) { h.Set("Authorization", "Bearer "+key) },
		payload: func(sender model.Address, e model.Email) any {
			// text/plain must precede text/html
			return sendGridMail{
				Personalizations: []sendGridPersonalization{{To: e.To}},
				From:             sender,
				ReplyTo:          e.ReplyTo,
				Subject:          e.Subject,
				Content: []sendGridContent{
					{Type: "text/plain", Value: e.Text},
					{Type: "text/html", Value: e.HTML},
				},
			}
		},
	}
}
