package form

import "context"

type ChallengeStatus int

const (
	// ChallengePending: the widget has not loaded yet.
	ChallengePending ChallengeStatus = iota
	// ChallengeReady: the widget loaded; Token may still be empty.
	ChallengeReady
	// ChallengeFailed: the widget errored. Submission is not blocked.
	ChallengeFailed
)

func (s ChallengeStatus) String() string {
	switch s {
	case ChallengeReady:
		return "ready"
	case ChallengeFailed:
		return "failed"
	default:
		return "pending"
	}
}

type ChallengeState struct {
	Status ChallengeStatus
	Token  string
}

// Widget is an external bot-challenge widget.
type Widget interface {
	// Solve blocks until the widget yields a token or fails.
	Solve(ctx context.Context) (string, error)
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func(ctx context.Context) (string, error)

func (f WidgetFunc) Solve(ctx context.Context) (string, error) { return f(ctx) }
