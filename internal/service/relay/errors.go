package relay

import "strings"

// Messages surfaced to the form as {"error": ...}.
const (
	MsgRequiredFields    = "Name, email, and offer are required"
	MsgChallengeRequired = "Please complete the spam protection challenge"
	MsgChallengeFailed   = "Spam protection verification failed"
)

// ValidationError is a client error: required data is missing.
type ValidationError struct {
	Message string
	Fields  []string // payload fields that failed, if known
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

// ChallengeVerificationError is a client error: the token was presented
// but could not be verified.
type ChallengeVerificationError struct {
	Err error
}

func (e *ChallengeVerificationError) Error() string {
	if e.Err == nil {
		return MsgChallengeFailed
	}
	return MsgChallengeFailed + ": " + e.Err.Error()
}

func (e *ChallengeVerificationError) Unwrap() error { return e.Err }
