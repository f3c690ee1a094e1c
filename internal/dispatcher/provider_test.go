package dispatcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/domain-offers/internal/config"
	"github.com/jmehdipour/domain-offers/internal/model"
)

type captured struct {
	path    string
	headers http.Header
	body    map[string]any
}

func captureServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.headers = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &c.body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func confirmation() model.Email {
	return model.Email{
		Kind:    model.KindConfirmation,
		Locale:  model.LocaleDE,
		To:      []model.Address{{Email: "jane@x.com", Name: "Jane"}},
		ReplyTo: &model.Address{Email: "jane@x.com", Name: "Jane"},
		Subject: "subject",
		Text:    "text",
		HTML:    "<p>text</p>",
	}
}

var delivery = config.DeliveryConfig{SenderName: "Domain Sales", SenderEmail: "noreply@example.com"}

func TestBrevo_RequestShape(t *testing.T) {
	srv, got := captureServer(t, http.StatusCreated, `{"messageId":"x"}`)
	p := NewBrevo(config.ProviderConfig{APIKey: "k1", BaseURL: srv.URL}, delivery, srv.Client())

	require.NoError(t, p.Send(context.Background(), confirmation()))

	assert.Equal(t, "/v3/smtp/email", got.path)
	assert.Equal(t, "k1", got.headers.Get("api-key"))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, "subject", got.body["subject"])
	assert.Equal(t, "<p>text</p>", got.body["htmlContent"])
	assert.Equal(t, "text", got.body["textContent"])
	assert.Equal(t, map[string]any{"email": "noreply@example.com", "name": "Domain Sales"}, got.body["sender"])
	assert.Equal(t, map[string]any{"email": "jane@x.com", "name": "Jane"}, got.body["replyTo"])
}

func TestSendGrid_RequestShape(t *testing.T) {
	srv, got := captureServer(t, http.StatusAccepted, "")
	p := NewSendGrid(config.ProviderConfig{APIKey: "sg", BaseURL: srv.URL, SenderEmail: "sales@example.com"}, delivery, srv.Client())

	require.NoError(t, p.Send(context.Background(), confirmation()))

	assert.Equal(t, "/v3/mail/send", got.path)
	assert.Equal(t, "Bearer sg", got.headers.Get("Authorization"))
	assert.Equal(t, map[string]any{"email": "sales@example.com", "name": "Domain Sales"}, got.body["from"])

	content, ok := got.body["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 2)
	assert.Equal(t, "text/plain", content[0].(map[string]any)["type"])
	assert.Equal(t, "text/html", content[1].(map[string]any)["type"])
}

func TestResend_RequestShape(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `{"id":"1"}`)
	p := NewResend(config.ProviderConfig{APIKey: "re", BaseURL: srv.URL + "/"}, delivery, srv.Client())

	require.NoError(t, p.Send(context.Background(), confirmation()))

	assert.Equal(t, "/emails", got.path)
	assert.Equal(t, "Bearer re", got.headers.Get("Authorization"))
	assert.Equal(t, `"Domain Sales" <noreply@example.com>`, got.body["from"])
	assert.Equal(t, []any{`"Jane" <jane@x.com>`}, got.body["to"])
	assert.Equal(t, `"Jane" <jane@x.com>`, got.body["reply_to"])
}

func TestResend_NameCannotAddRecipients(t *testing.T) {
	for _, name := range []string{
		"victim@other.org, Jane",
		"Doe, Jane <boss@evil.com>",
		`Jane "JJ" <x>`,
	} {
		srv, got := captureServer(t, http.StatusOK, `{"id":"1"}`)
		p := NewResend(config.ProviderConfig{APIKey: "re", BaseURL: srv.URL}, delivery, srv.Client())

		email := confirmation()
		email.To = []model.Address{{Email: "jane@x.com", Name: name}}
		email.ReplyTo = &model.Address{Email: "jane@x.com", Name: name}
		require.NoError(t, p.Send(context.Background(), email))

		to, ok := got.body["to"].([]any)
		require.True(t, ok)
		require.Len(t, to, 1)

		for _, raw := range []any{to[0], got.body["reply_to"]} {
			list, err := mail.ParseAddressList(raw.(string))
			require.NoError(t, err, name)
			require.Len(t, list, 1, name)
			assert.Equal(t, "jane@x.com", list[0].Address)
			assert.Equal(t, name, list[0].Name)
		}
	}
}

func TestResend_BareAddressWithoutName(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, `{"id":"1"}`)
	p := NewResend(config.ProviderConfig{APIKey: "re", BaseURL: srv.URL}, delivery, srv.Client())

	email := confirmation()
	email.To = []model.Address{{Email: "owner@example.com"}}
	require.NoError(t, p.Send(context.Background(), email))

	assert.Equal(t, []any{"owner@example.com"}, got.body["to"])
}

func TestHTTPProvider_Non2xxIsStatusError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusUnauthorized, `{"message":"Key not found"}`)
	p := NewBrevo(config.ProviderConfig{APIKey: "bad", BaseURL: srv.URL}, delivery, srv.Client())

	err := p.Send(context.Background(), confirmation())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "brevo", se.Provider)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Contains(t, se.Body, "Key not found")
}

func TestBuildProviders_PriorityOrder(t *testing.T) {
	cfg := config.Config{Delivery: delivery}
	assert.Empty(t, BuildProviders(cfg, nil))

	cfg.Providers.Resend.APIKey = "re"
	cfg.Providers.Brevo.APIKey = "br"
	assert.Equal(t, []string{"brevo", "resend"}, Names(BuildProviders(cfg, nil)))

	cfg.Providers.SendGrid.APIKey = "sg"
	assert.Equal(t, []string{"sendgrid", "brevo", "resend"}, Names(BuildProviders(cfg, nil)))
}

func TestTraced_PassesThrough(t *testing.T) {
	inner := &fakeProvider{name: "brevo"}
	p := Traced(inner)

	assert.Equal(t, "brevo", p.Name())
	assert.NoError(t, p.Send(context.Background(), confirmation()))
	assert.EqualValues(t, 1, inner.calls.Load())
}
