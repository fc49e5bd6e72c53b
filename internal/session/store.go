// Package session owns the per-browser session state: who is signed in, the
// last status message, and the email verified during sign-up. Every write is
// fenced by the order operations were issued in, so a slow early reply never
// overwrites the outcome of a later one.
package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/fence"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/tracing"
	"golang.org/x/sync/singleflight"
)

// Gateway is the backend client a session talks through.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values) (*gateway.Response, error)
	Post(ctx context.Context, path string, body any) (*gateway.Response, error)
	Put(ctx context.Context, path string, body any) (*gateway.Response, error)
	Delete(ctx context.Context, path string) (*gateway.Response, error)
	Cookies() []*http.Cookie
	ClearCookies()
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string
	Password string
}

// ProfileUpdate carries the editable profile fields; nil fields are left
// unchanged by the backend.
type ProfileUpdate struct {
	Name           *string         `json:"name,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	Gender         *string         `json:"gender,omitempty"`
	Profession     *string         `json:"profession,omitempty"`
	Contact        *domain.Contact `json:"contactInfo,omitempty"`
	Social         *domain.Social  `json:"socialAccounts,omitempty"`
	Designation    *string         `json:"designation,omitempty"`
	DepartmentName *string         `json:"departmentName,omitempty"`
	Expertise      *string         `json:"expertise,omitempty"`
	Education      []string        `json:"education_qualification,omitempty"`
	WorkExperience []string        `json:"workExperience,omitempty"`
}

// Snapshot is a consistent read of the session for the browser.
type Snapshot struct {
	Identity *domain.Identity `json:"user"`
	Message  string           `json:"message"`
}

type Store struct {
	id string
	gw Gateway

	seq      fence.Sequence
	identity fence.Register[*domain.Identity]
	message  fence.Register[string]

	flight singleflight.Group
	// loaded is set once identity has been resolved by a profile load or a
	// login/logout, so guards stop waiting on the backend.
	loaded atomic.Bool

	mu       sync.Mutex
	verified map[string]verification
	attached map[any]any

	lastSeen atomic.Int64
	now      func() time.Time
}

func NewStore(id string, gw Gateway) *Store {
	s := &Store{
		id:       id,
		gw:       gw,
		verified: make(map[string]verification),
		attached: make(map[any]any),
		now:      time.Now,
	}
	s.touch()
	return s
}

func (s *Store) ID() string { return s.id }

// adopt copies old's identity and message into a store that has not run any
// operation yet.
func (s *Store) adopt(old *Store) {
	t := s.seq.Next()
	s.identity.Commit(t, old.Identity())
	s.message.Commit(t, old.Message())
	s.loaded.Store(old.loaded.Load())
}

// Gateway exposes the session's backend client to views and auxiliary
// stores so they reuse its credential cookies.
func (s *Store) Gateway() Gateway { return s.gw }

// Attachment returns the value kept under key for this session, creating it
// with create on first use.
func (s *Store) Attachment(key any, create func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.attached[key]; ok {
		return v
	}
	v := create()
	s.attached[key] = v
	return v
}

// Identity returns a copy of the signed-in user, or nil.
func (s *Store) Identity() *domain.Identity {
	v, _ := s.identity.Load()
	return v.Clone()
}

func (s *Store) Message() string {
	v, _ := s.message.Load()
	return v
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{Identity: s.Identity(), Message: s.Message()}
}

// ResetMessage clears the status message. It is an operation of its own, so
// a reply to an earlier request cannot bring the old message back.
func (s *Store) ResetMessage() {
	s.message.Commit(s.seq.Next(), "")
}

func (s *Store) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

func (s *Store) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// ----------------------
// Sign-up
// ----------------------

func (s *Store) SendVerificationCode(ctx context.Context, email string) error {
	t := s.seq.Next()
	resp, err := s.gw.Post(ctx, "/auth/sendSignUpCode", map[string]string{"email": email})
	return s.settle(t, resp, err)
}

// VerifyCode checks code with the backend and, on success, returns the token
// registration requires. A code that is not exactly six digits is rejected
// without a round trip.
func (s *Store) VerifyCode(ctx context.Context, email, code string) (VerifiedEmail, error) {
	t := s.seq.Next()
	n, ok := parseCode(code)
	if !ok {
		return VerifiedEmail{}, s.fail(t, domain.ErrInvalidCode())
	}

	resp, err := s.gw.Post(ctx, "/auth/verifySignUpCode", map[string]any{
		"email":            email,
		"verificationCode": n,
	})
	if err := s.settle(t, resp, err); err != nil {
		return VerifiedEmail{}, err
	}
	return s.remember(email, n), nil
}

func (s *Store) RegisterStudent(ctx context.Context, v VerifiedEmail, reg Registration) error {
	return s.register(ctx, "/auth/student/register", v, reg)
}

func (s *Store) RegisterMentor(ctx context.Context, v VerifiedEmail, reg Registration) error {
	return s.register(ctx, "/auth/mentor/register", v, reg)
}

func (s *Store) register(ctx context.Context, path string, v VerifiedEmail, reg Registration) error {
	t := s.seq.Next()
	entry, ok := s.lookup(v)
	if !ok {
		return s.fail(t, domain.ErrEmailNotVerified())
	}

	resp, err := s.gw.Post(ctx, path, map[string]any{
		"name":             reg.Name,
		"email":            entry.email,
		"password":         reg.Password,
		"verificationCode": entry.code,
	})
	if err := s.settle(t, resp, err); err != nil {
		return err
	}
	s.consume(v)
	return nil
}

// ----------------------
// Session lifecycle
// ----------------------

type userEnvelope struct {
	gateway.Envelope
	User *domain.Identity `json:"user"`
}

// Login signs in and sets the identity from the backend's user record. On
// failure the identity is left as it was.
func (s *Store) Login(ctx context.Context, c Credentials) (*domain.Identity, error) {
	t := s.seq.Next()
	resp, err := s.gw.Post(ctx, "/auth/login", c)
	if err != nil {
		return nil, s.fail(t, err)
	}
	env, err := gateway.Decode[userEnvelope](resp)
	if err != nil {
		return nil, s.fail(t, err)
	}
	if env.User == nil {
		return nil, s.fail(t, domain.ErrRejected(env.Message))
	}

	s.identity.Commit(t, env.User)
	s.message.Commit(t, env.Message)
	s.loaded.Store(true)
	logger.Ctx(ctx).Info().Str("role", string(env.User.Role)).Msg("session_login")
	return env.User.Clone(), nil
}

// Profile refreshes the identity from the backend. Concurrent callers share
// one in-flight request; a caller that gives up early does not cancel it for
// the others.
func (s *Store) Profile(ctx context.Context) (*domain.Identity, error) {
	ch := s.flight.DoChan("profile", func() (any, error) {
		return s.loadProfile(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, gateway.ToDomain(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Identity).Clone(), nil
	}
}

func (s *Store) loadProfile(ctx context.Context) (*domain.Identity, error) {
	ctx, span := tracing.StartSpan(ctx, "session.load_profile")
	defer span.End()

	t := s.seq.Next()
	resp, err := s.gw.Get(ctx, "/auth/profile", nil)
	if err != nil {
		var re *gateway.RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized {
			// backend credentials are gone; the session is signed out
			s.identity.Commit(t, nil)
			s.loaded.Store(true)
		}
		return nil, s.fail(t, err)
	}
	env, err := gateway.Decode[userEnvelope](resp)
	if err != nil {
		return nil, s.fail(t, err)
	}

	s.identity.Commit(t, env.User)
	s.message.Commit(t, env.Message)
	s.loaded.Store(true)
	return env.User, nil
}

// EnsureLoaded resolves the identity once per session and returns it. Guards
// call it before deciding so they never redirect while the first profile load
// is still outstanding.
func (s *Store) EnsureLoaded(ctx context.Context) *domain.Identity {
	if !s.loaded.Load() {
		if _, err := s.Profile(ctx); err != nil {
			logger.Ctx(ctx).Debug().Err(err).Msg("profile_load_failed")
		}
	}
	return s.Identity()
}

// Logout ends the backend session. The identity is cleared whatever the
// backend answers, including over writes issued while the logout was in
// flight.
func (s *Store) Logout(ctx context.Context) error {
	t := s.seq.Next()
	resp, err := s.gw.Post(ctx, "/auth/logout", nil)

	s.gw.ClearCookies()
	s.signOut()

	return s.settle(t, resp, err)
}

// signOut clears the identity under a fresh ticket so no reply to an
// operation issued before it can sign the session back in.
func (s *Store) signOut() {
	s.identity.Commit(s.seq.Next(), nil)
	s.loaded.Store(true)
}

// ----------------------
// Account
// ----------------------

func (s *Store) UpdateUser(ctx context.Context, u ProfileUpdate) (*domain.Identity, error) {
	t := s.seq.Next()
	resp, err := s.gw.Put(ctx, "/auth/updateProfile", u)
	if err != nil {
		return nil, s.fail(t, err)
	}
	env, err := gateway.Decode[struct {
		gateway.Envelope
		User *domain.Identity `json:"updatedUser"`
	}](resp)
	if err != nil {
		return nil, s.fail(t, err)
	}
	if env.User != nil {
		s.identity.Commit(t, env.User)
	}
	s.message.Commit(t, env.Message)
	return env.User.Clone(), nil
}

// DeleteUser deletes the signed-in account and signs the session out.
func (s *Store) DeleteUser(ctx context.Context) error {
	t := s.seq.Next()
	resp, err := s.gw.Put(ctx, "/auth/deleteUser", nil)
	if err := s.settle(t, resp, err); err != nil {
		return err
	}
	s.gw.ClearCookies()
	s.signOut()
	return nil
}

func (s *Store) ChangePassword(ctx context.Context, oldPass, newPass string) error {
	t := s.seq.Next()
	resp, err := s.gw.Put(ctx, "/auth/changePassword", map[string]string{
		"oldPass": oldPass,
		"newPass": newPass,
	})
	if err != nil {
		return s.fail(t, err)
	}
	env, err := gateway.Decode[userEnvelope](resp)
	if err != nil {
		return s.fail(t, err)
	}
	if env.User != nil {
		s.identity.Commit(t, env.User)
	}
	s.message.Commit(t, env.Message)
	return nil
}

func (s *Store) SendForgetPasswordCode(ctx context.Context, email string) error {
	t := s.seq.Next()
	resp, err := s.gw.Post(ctx, "/auth/sendForgetPasswordCode", map[string]string{"email": email})
	return s.settle(t, resp, err)
}

func (s *Store) ResetForgottenPassword(ctx context.Context, email, code, newPass string) error {
	t := s.seq.Next()
	n, ok := parseCode(code)
	if !ok {
		return s.fail(t, domain.ErrInvalidCode())
	}
	resp, err := s.gw.Post(ctx, "/auth/forgetPassCode", map[string]any{
		"email":            email,
		"verificationCode": n,
		"newPass":          newPass,
	})
	return s.settle(t, resp, err)
}

// ----------------------
// Outcome recording
// ----------------------

// settle records the outcome of an operation whose reply carries only the
// envelope.
func (s *Store) settle(t fence.Ticket, resp *gateway.Response, err error) error {
	if err != nil {
		return s.fail(t, err)
	}
	env, err := gateway.Decode[gateway.Envelope](resp)
	if err != nil {
		return s.fail(t, err)
	}
	s.message.Commit(t, env.Message)
	return nil
}

// fail writes the operation's error message and returns the domain error.
func (s *Store) fail(t fence.Ticket, err error) error {
	de := gateway.ToDomain(err)
	s.message.Commit(t, de.Message)
	return de
}
