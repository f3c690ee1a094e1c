package form

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jmehdipour/domain-offers/internal/model"
)

var (
	ErrChallengeRequired = errors.New("form: challenge token required")
	ErrSubmitInFlight    = errors.New("form: submission already in flight")
	ErrAlreadySubmitted  = errors.New("form: already submitted, reset first")
)

type State int

const (
	StateEditable State = iota
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "editable"
	}
}

// Fields is the user-editable part of the form.
type Fields struct {
	Name    string
	Email   string
	Phone   string
	Offer   string
	Message string
}

type Options struct {
	RelayURL            string       // e.g. https://example.com/api/contact
	Locale              model.Locale // empty lets the relay apply the site default
	ChallengeConfigured bool         // a site key is present
	Host                string       // page hostname; defaults to the relay URL host
	Client              *http.Client
	Logger              *zap.Logger
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State            State
	Fields           Fields
	Challenge        ChallengeState
	Error            string
	ConfirmationSent bool
}

// Controller holds the contact form state and issues at most one relay
// request at a time.
type Controller struct {
	locale     model.Locale
	configured bool
	local      bool
	client     *relayClient
	log        *zap.Logger

	mu               sync.Mutex
	fields           Fields
	state            State
	challenge        ChallengeState
	lastErr          string
	confirmationSent bool
}

func NewController(opts Options) *Controller {
	host := opts.Host
	if host == "" {
		if u, err := url.Parse(opts.RelayURL); err == nil {
			host = u.Host
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		locale:     opts.Locale,
		configured: opts.ChallengeConfigured,
		local:      strings.Contains(host, "localhost"),
		client:     newRelayClient(opts.RelayURL, opts.Client),
		log:        log.With(zap.String("component", "form")),
	}
}

// Update merges one field. Unknown names are ignored and reported as false.
func (c *Controller) Update(field, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToLower(field) {
	case "name":
		c.fields.Name = value
	case "email":
		c.fields.Email = value
	case "phone":
		c.fields.Phone = value
	case "offer":
		c.fields.Offer = value
	case "message":
		c.fields.Message = value
	default:
		return false
	}
	return true
}

// ChallengeApplies reports whether a widget should be shown at all.
func (c *Controller) ChallengeApplies() bool { return c.configured && !c.local }

func (c *Controller) ChallengeSucceeded(token string) {
	c.setChallenge(ChallengeState{Status: ChallengeReady, Token: token})
}

func (c *Controller) ChallengeFailed() {
	c.setChallenge(ChallengeState{Status: ChallengeFailed})
}

func (c *Controller) ChallengeExpired() {
	c.setChallenge(ChallengeState{Status: ChallengeReady})
}

func (c *Controller) setChallenge(st ChallengeState) {
	c.mu.Lock()
	c.challenge = st
	c.mu.Unlock()
}

// AcquireChallenge runs the widget when one applies and records the outcome.
// A widget error leaves the form submittable.
func (c *Controller) AcquireChallenge(ctx context.Context, w Widget) error {
	if !c.ChallengeApplies() || w == nil {
		return nil
	}

	token, err := w.Solve(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		c.log.Warn("challenge widget failed", zap.Error(err))
		c.ChallengeFailed()
		return err
	case token == "":
		c.ChallengeExpired()
	default:
		c.ChallengeSucceeded(token)
	}
	return nil
}

// CanSubmit mirrors the submit button: disabled while a request is in flight
// or while the widget is still loading.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditable {
		return false
	}
	return !(c.ChallengeApplies() && c.challenge.Status == ChallengePending)
}

// Submit gates, serializes and sends the form. A nil error means the relay
// accepted it and the controller is now Submitted.
func (c *Controller) Submit(ctx context.Context) (err error) {
	payload, err := c.begin()
	if err != nil {
		return err
	}

	var resp model.ContactResponse
	defer func() {
		if r := recover(); r != nil {
			c.finish(resp, &SubmitError{Message: MsgGenericFailure})
			panic(r)
		}
		c.finish(resp, err)
	}()

	c.log.Debug("submitting offer", zap.String("locale", payload.Locale.String()))
	resp, err = c.client.send(ctx, payload)
	return err
}

func (c *Controller) begin() (model.SubmissionPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateSubmitting:
		return model.SubmissionPayload{}, ErrSubmitInFlight
	case StateSubmitted:
		return model.SubmissionPayload{}, ErrAlreadySubmitted
	}

	if c.ChallengeApplies() && c.challenge.Status == ChallengeReady && c.challenge.Token == "" {
		c.lastErr = MsgChallengeRequired
		return model.SubmissionPayload{}, ErrChallengeRequired
	}

	c.state = StateSubmitting
	c.lastErr = ""

	return model.SubmissionPayload{
		Name:           c.fields.Name,
		Email:          c.fields.Email,
		Phone:          c.fields.Phone,
		Offer:          c.fields.Offer,
		Message:        c.fields.Message,
		Locale:         c.locale,
		ChallengeToken: c.tokenLocked(),
	}, nil
}

func (c *Controller) tokenLocked() string {
	switch {
	case c.challenge.Token != "":
		return c.challenge.Token
	case c.local:
		return model.ChallengeLocalhostBypass
	default:
		return model.ChallengeBypassed
	}
}

func (c *Controller) finish(resp model.ContactResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateEditable
		c.lastErr = Message(err)
		c.log.Info("offer not accepted", zap.Error(err))
		return
	}

	c.state = StateSubmitted
	c.confirmationSent = resp.ConfirmationSent
}

// Reset clears the form and challenge after a submission.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	c.fields = Fields{}
	c.challenge = ChallengeState{}
	c.state = StateEditable
	c.lastErr = ""
	c.confirmationSent = false
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:            c.state,
		Fields:           c.fields,
		Challenge:        c.challenge,
		Error:            c.lastErr,
		ConfirmationSent: c.confirmationSent,
	}
}
