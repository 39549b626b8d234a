package model

import "time"

// Source identifies which path produced a response.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Response is a single assistant reply.
type Response struct {
	ID        string    `json:"id"`
	Intent    Intent    `json:"intent"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Utterance is one user turn as received.
type Utterance struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"received_at"`
}

// Turn pairs an utterance with the response generated for it.
// A turn with an empty Utterance.ID is an unsolicited assistant message
// such as the session greeting.
type Turn struct {
	Utterance Utterance `json:"utterance"`
	Response  Response  `json:"response"`
}
