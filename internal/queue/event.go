// Package queue defines message payloads exchanged over the message broker
// and the consumer that drains them.
package queue

// ContactQueueName is the durable queue carrying contact inquiries.
const ContactQueueName = "contact.received"

// ContactReceivedEvent is published after a contact message is stored.  It
// carries the full inquiry so the support inbox never reads the database.
type ContactReceivedEvent struct {
	MessageID  string `json:"message_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}
