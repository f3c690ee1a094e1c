package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmehdipour/domain-offers/internal/model"
)

const (
	MsgChallengeRequired = "Please complete the spam protection challenge."
	MsgGenericFailure    = "Failed to send message. Please try again."
)

// SubmitError is a failed relay request. Message is what the user sees.
type SubmitError struct {
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("form: relay request failed: %s", e.Message)
	}
	return fmt.Sprintf("form: relay responded %d: %s", e.Status, e.Message)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Message maps a Submit error to the text shown to the user.
func Message(err error) string {
	var se *SubmitError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrChallengeRequired):
		return MsgChallengeRequired
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	default:
		return MsgGenericFailure
	}
}

// relayClient posts one payload to the contact endpoint.
type relayClient struct {
	url  string
	http *http.Client
}

func newRelayClient(url string, client *http.Client) *relayClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &relayClient{url: url, http: client}
}

func (c *relayClient) send(ctx context.Context, p model.SubmissionPayload) (model.ContactResponse, error) {
	var out model.ContactResponse

	body, err := json.Marshal(p)
	if err != nil {
		return out, &SubmitError{Message: MsgGenericFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return out, &SubmitError{Message: MsgGenericFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return out, &SubmitError{Message: MsgGenericFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return out, &SubmitError{Status: resp.StatusCode, Message: MsgGenericFailure, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er model.ErrorResponse
		if err := json.Unmarshal(raw, &er); err != nil {
			return out, &SubmitError{Status: resp.StatusCode, Message: MsgGenericFailure, Err: err}
		}
		msg := er.Error
		if msg == "" {
			msg = MsgGenericFailure
		}
		return out, &SubmitError{Status: resp.StatusCode, Message: msg}
	}

	// a 2xx without a readable body still counts as submitted
	_ = json.Unmarshal(raw, &out)
	return out, nil
}
