package models

// Notification is an outbound message to an off-system actor.
type Notification struct {
	To       []string
	Subject  string
	Body     string
	HTML     bool
	Template string
}
