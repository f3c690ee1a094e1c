package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LocaleKeptVerbatim(t *testing.T) {
	for _, raw := range []Locale{" de ", "de ", "DE", "fr"} {
		p := SubmissionPayload{Locale: raw}
		p.Normalize(LocaleEN)

		assert.Equal(t, raw, p.Locale)
		assert.False(t, p.Locale.IsGerman(), "%q", raw)
	}
}

func TestNormalize_AbsentLocaleUsesSiteDefault(t *testing.T) {
	p := SubmissionPayload{}
	p.Normalize(LocaleDE)
	assert.Equal(t, LocaleDE, p.Locale)

	p = SubmissionPayload{}
	p.Normalize("")
	assert.Equal(t, DefaultLocale, p.Locale)
}

func TestNormalize_TrimsFieldsAndResolvesLegacyToken(t *testing.T) {
	p := SubmissionPayload{Name: " Jane ", Offer: "\t$5000\n", LegacyToken: " tok "}
	p.Normalize(LocaleEN)

	assert.Equal(t, "Jane", p.Name)
	assert.Equal(t, "$5000", p.Offer)
	assert.Equal(t, "tok", p.ChallengeToken)
	assert.Empty(t, p.LegacyToken)
}
