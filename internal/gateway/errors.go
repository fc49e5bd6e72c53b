package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
)

var (
	ErrTimeout     = errors.New("backend_timeout")
	ErrUnavailable = errors.New("backend_unavailable")
	// ErrCanceled means the caller gave up, usually because a newer fetch
	// superseded this one.
	ErrCanceled = errors.New("backend_canceled")
)

// RemoteError is a non-2xx reply. Message comes from the failure payload's
// "message" key and is empty when the body carried none.
type RemoteError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backend error [%d]: %s", e.StatusCode, e.Message)
}

func newRemoteError(status int, body []byte) *RemoteError {
	var env struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &env)
	return &RemoteError{StatusCode: status, Message: env.Message, Body: body}
}

// ToDomain converts a gateway failure into the error reported to the user.
// Remote status codes and messages are preserved.
func ToDomain(err error) *domain.Error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return domain.ErrRemote(re.StatusCode, re.Message)
	}
	switch {
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return domain.ErrSuperseded()
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrBackendTimeout(err)
	case errors.Is(err, ErrUnavailable):
		return domain.ErrBackendUnavailable(err)
	}
	return domain.ErrInternal(err)
}
