// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

// Message is one encoded event. Topic scopes it to the subscribers of one
// analysis session; an empty topic goes to every client.
type Message struct {
	Topic string
	Data  []byte
}

// NewJSONMessage creates a message from pre-encoded JSON
func NewJSONMessage(topic string, data []byte) Message {
	return Message{Topic: topic, Data: data}
}
