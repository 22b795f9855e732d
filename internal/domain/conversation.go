package domain

// Exchange is one prior (question, answer) pair within a session. History is
// caller-owned: it is passed explicitly on each question request, appended to
// by the caller, and never persisted by this service.
type Exchange struct {
	Question string
	Answer   string
}
