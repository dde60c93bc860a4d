package websocket

import (
	"encoding/json"
	"time"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// FilesChanged is the payload pushed after a mutation in a user's tree.
type FilesChanged struct {
	Op   string    `json:"op"`   // folder_created, deleted, uploaded
	Path string    `json:"path"` // Directory the change happened in, relative to the user root
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// NewFilesChangedMessage encodes a files_changed notification.
func NewFilesChangedMessage(op, path, name string) []byte {
	return encode(Message{
		Action:  "files_changed",
		Payload: FilesChanged{Op: op, Path: path, Name: name, At: time.Now().UTC()},
	})
}

// NewErrorMessage encodes an error reply for a single client.
func NewErrorMessage(msg string) []byte {
	return encode(Message{Action: "error", Payload: map[string]string{"message": msg}})
}

// NewPongMessage encodes the reply to a client ping.
func NewPongMessage() []byte {
	return encode(Message{Action: "pong"})
}

func encode(m Message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// Payloads are plain structs and maps of strings; this cannot fail.
		return []byte(`{"action":"error"}`)
	}
	return b
}
