package model

type MessageKind string

const (
	KindOwner        MessageKind = "owner"
	KindConfirmation MessageKind = "confirmation"
)

func (k MessageKind) String() string { return string(k) }

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Email is a provider-agnostic message. Providers fill in their own sender.
type Email struct {
	Kind    MessageKind
	Locale  Locale
	To      []Address
	ReplyTo *Address
	Subject string
	Text    string
	HTML    string
}

// AttemptResult records one provider attempt for one message.
type AttemptResult struct {
	Provider string
	Success  bool
	Err      error
}

// DeliveryReport is the outcome of delivering one message through the
// ordered provider list.
type DeliveryReport struct {
	Kind     MessageKind
	Attempts []AttemptResult
	Sent     bool
	Provider string // provider that accepted the message, if any
	Err      error  // nil when Sent
}
