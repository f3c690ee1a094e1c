package model

import "strings"

// Reserved challenge tokens sent by the form when verification is skipped.
const (
	// ChallengeBypassed is sent when the challenge widget is absent or misconfigured.
	ChallengeBypassed = "bypassed"
	// ChallengeLocalhostBypass is sent from local development hosts.
	ChallengeLocalhostBypass = "localhost-bypass"
)

func IsBypassToken(token string) bool {
	return token == ChallengeBypassed || token == ChallengeLocalhostBypass
}

// SubmissionPayload is the body of POST /api/contact.
type SubmissionPayload struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required"`
	Phone          string `json:"phone,omitempty"`
	Offer          string `json:"offer" validate:"required"`
	Message        string `json:"message,omitempty"`
	Locale         Locale `json:"locale,omitempty"`
	ChallengeToken string `json:"challengeToken,omitempty"`

	// LegacyToken accepts the field name used by older page builds.
	LegacyToken string `json:"turnstileToken,omitempty"`
}

// Normalize trims the text fields, resolves the token alias and fills an
// absent locale with defaultLocale (DefaultLocale when that is empty too).
// A present locale is kept byte for byte; template choice compares it
// exactly.
func (p *SubmissionPayload) Normalize(defaultLocale Locale) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Offer = strings.TrimSpace(p.Offer)
	p.Message = strings.TrimSpace(p.Message)
	p.ChallengeToken = strings.TrimSpace(p.ChallengeToken)
	p.LegacyToken = strings.TrimSpace(p.LegacyToken)

	if p.ChallengeToken == "" {
		p.ChallengeToken = p.LegacyToken
	}
	p.LegacyToken = ""

	if p.Locale == "" {
		p.Locale = defaultLocale
	}
	if p.Locale == "" {
		p.Locale = DefaultLocale
	}
}

// ContactResponse is the success body of POST /api/contact.
type ContactResponse struct {
	Success          bool `json:"success"`
	ConfirmationSent bool `json:"confirmationSent"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
