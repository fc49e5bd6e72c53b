package session

import (
	"time"

	"github.com/google/uuid"
)

// verifiedTTL bounds how long a verified email may wait for registration.
const verifiedTTL = 15 * time.Minute

// VerifiedEmail proves that an email passed code verification in this
// session. Only VerifyCode mints one, and registration refuses to run
// without it.
type VerifiedEmail struct {
	nonce string
	email string
}

func (v VerifiedEmail) Email() string { return v.email }
func (v VerifiedEmail) IsZero() bool  { return v.nonce == "" }

type verification struct {
	email   string
	code    int
	expires time.Time
}

func parseCode(code string) (int, bool) {
	if len(code) != 6 {
		return 0, false
	}
	n := 0
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func (s *Store) remember(email string, code int) VerifiedEmail {
	v := VerifiedEmail{nonce: uuid.NewString(), email: email}

	s.mu.Lock()
	defer s.mu.Unlock()
	// one pending verification per email
	for nonce, e := range s.verified {
		if e.email == email {
			delete(s.verified, nonce)
		}
	}
	s.verified[v.nonce] = verification{email: email, code: code, expires: s.now().Add(verifiedTTL)}
	return v
}

func (s *Store) lookup(v VerifiedEmail) (verification, bool) {
	if v.IsZero() {
		return verification{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.verified[v.nonce]
	if !ok || e.email != v.email {
		return verification{}, false
	}
	if s.now().After(e.expires) {
		delete(s.verified, v.nonce)
		return verification{}, false
	}
	return e, true
}

func (s *Store) consume(v VerifiedEmail) {
	s.mu.Lock()
	delete(s.verified, v.nonce)
	s.mu.Unlock()
}

// VerifiedFor returns the pending verification for email, if any. Handlers
// use it to carry the token from the verify request to the register request.
func (s *Store) VerifiedFor(email string) (VerifiedEmail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nonce, e := range s.verified {
		if e.email == email && !s.now().After(e.expires) {
			return VerifiedEmail{nonce: nonce, email: email}, true
		}
	}
	return VerifiedEmail{}, false
}
