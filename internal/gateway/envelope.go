package gateway

import (
	"encoding/json"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
)

// Envelope is the part every backend reply shares: a success flag and a
// human-readable message. Domain data rides under its own key next to it.
type Envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}

func (e Envelope) rejected() bool {
	return e.Success != nil && !*e.Success
}

// Decode unmarshals a reply into T. A 2xx reply that still reports
// success=false is returned as a rejection carrying its message.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if resp == nil || len(resp.Body) == 0 {
		return out, nil
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err == nil && env.rejected() {
		return out, domain.ErrRejected(env.Message)
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, domain.Wrap(domain.KindInternal, "bad_backend_payload", domain.FallbackMessage, err)
	}
	return out, nil
}

// MessageOf returns the envelope message of a reply, or "".
func MessageOf(resp *Response) string {
	if resp == nil {
		return ""
	}
	var env Envelope
	_ = json.Unmarshal(resp.Body, &env)
	return env.Message
}
