package model

// ValidationError wraps a user-facing validation message. Handlers map it
// to a 400 response.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
