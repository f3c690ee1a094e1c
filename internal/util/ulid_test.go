package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewInquiryID(t *testing.T) {
	a := NewInquiryID()
	b := NewInquiryID()

	require.Len(t, a, ulid.EncodedSize)
	require.NotEqual(t, a, b)
	require.Less(t, a, b, "ids are monotonic within a process")

	_, err := ulid.ParseStrict(a)
	require.NoError(t, err)
}
