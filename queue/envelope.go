package queue

import "encoding/json"

// Envelope is the wire format of every queue message: a JSON payload plus
// free-form string metadata carried alongside it (spec §6).
type Envelope struct {
	Payload  json.RawMessage   `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope marshals payload into an Envelope with the given metadata.
func NewEnvelope(payload interface{}, metadata map[string]string) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Payload: data, Metadata: metadata}, nil
}

// Decode unmarshals the envelope's payload into dst.
func (e Envelope) Decode(dst interface{}) error {
	return json.Unmarshal(e.Payload, dst)
}

// Header names carried on sarama messages to approximate a visibility
// timeout / retry count, since sarama has no native equivalent (spec §6).
const (
	HeaderAttempt    = "x-attempt"
	HeaderEnqueuedAt = "x-enqueued-at"
)
