package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

// Provider delivers one email through one transactional-email service.
type Provider interface {
	Name() string
	Send(ctx context.Context, email model.Email) error
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider=%s status=%d body=%q", e.Provider, e.Status, e.Body)
}

// maxErrorBody caps how much of a provider error response ends up in logs.
const maxErrorBody = 512

// HTTPProvider posts a provider-specific JSON document to a single endpoint.
type HTTPProvider struct {
	name    string
	url     string
	sender  model.Address
	client  *http.Client
	auth    func(h http.Header)
	payload func(sender model.Address, email model.Email) any
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Send(ctx context.Context, email model.Email) error {
	return p.post(ctx, p.payload(p.sender, email))
}

func (p *HTTPProvider) post(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("provider=%s marshal: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	p.auth(req.Header)

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &StatusError{Provider: p.name, Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	_, _ = io.Copy(io.Discard, res.Body)

	return nil
}

// senderFor resolves a provider's sender identity, falling back to the
// delivery-wide defaults.
func senderFor(pc config.ProviderConfig, dc config.DeliveryConfig) model.Address {
	addr := model.Address{Email: pc.SenderEmail, Name: pc.SenderName}
	if addr.Email == "" {
		addr.Email = dc.SenderEmail
	}
	if addr.Name == "" {
		addr.Name = dc.SenderName
	}
	return addr
}

func endpoint(baseURL, fallback, path string) string {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = fallback
	}
	return strings.TrimRight(baseURL, "/") + path
}

// BuildProviders returns the enabled providers in their fixed priority
// order: SendGrid, Brevo, Resend, each wrapped with tracing. Providers
// without an API key are skipped.
func BuildProviders(cfg config.Config, client *http.Client) []Provider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var provs []Provider
	if pc := cfg.Providers.SendGrid; pc.Enabled() {
		provs = append(provs, Traced(NewSendGrid(pc, cfg.Delivery, client)))
	}
	if pc := cfg.Providers.Brevo; pc.Enabled() {
		provs = append(provs, Traced(NewBrevo(pc, cfg.Delivery, client)))
	}
	if pc := cfg.Providers.Resend; pc.Enabled() {
		provs = append(provs, Traced(NewResend(pc, cfg.Delivery, client)))
	}

	return provs
}

// Names lists provider names in order, for logging.
func Names(provs []Provider) []string {
	out := make([]string, 0, len(provs))
	for _, p := range provs {
		out = append(out, p.Name())
	}
	return out
}
