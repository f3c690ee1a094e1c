package util

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewInquiryID returns a sortable ULID used to correlate the owner email,
// the confirmation and the log lines of one submission.
func NewInquiryID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewRequestID returns an id for the X-Request-ID header.
func NewRequestID() string {
	return NewInquiryID()
}
