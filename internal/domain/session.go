package domain

// Session is the authenticated context required on every backend request.
// It is created on login, held in the durable store, and destroyed on
// logout. Exactly one session is active at a time.
type Session struct {
	Token       string `json:"session_token"`
	BuilderName string `json:"builder_name"`
}

// Snapshot is a backend-acknowledged view of a conversation: the full
// transcript plus whether the negotiation has reached a terminal outcome.
type Snapshot struct {
	Turns []Turn `json:"chat"`
	Ended bool   `json:"conversation_ended"`
}
