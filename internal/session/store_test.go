package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mux  *http.ServeMux
	hits sync.Map // route -> *atomic.Int32
}

func (b *fakeBackend) handle(route string, h http.HandlerFunc) {
	counter := &atomic.Int32{}
	b.hits.Store(route, counter)
	b.mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		h(w, r)
	})
}

func (b *fakeBackend) count(route string) int {
	v, ok := b.hits.Load(route)
	if !ok {
		return 0
	}
	return int(v.(*atomic.Int32).Load())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T) (*Store, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{mux: http.NewServeMux()}
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)

	gw, err := gateway.New(srv.URL+"/api/v1", gateway.DefaultClientConfig())
	require.NoError(t, err)
	return NewStore("sid-test", gw), b
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	var c Credentials
	_ = json.NewDecoder(r.Body).Decode(&c)
	if c.Password != "good" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "tok", Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome",
		"user":    map[string]any{"_id": "u1", "role": "student", "name": "A", "email": c.Email},
	})
}

func TestLogin_Scenario(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)

	who, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "bad"})
	require.Error(t, err)
	assert.Nil(t, who)
	assert.Nil(t, st.Identity())
	assert.Equal(t, "Invalid credentials", st.Message())

	who, err = st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)
	require.NotNil(t, who)
	assert.Equal(t, domain.RoleStudent, who.Role)
	assert.Equal(t, "A", st.Identity().Name)
	assert.Equal(t, "Welcome", st.Message())
}

func TestLogin_RejectedEnvelopeWith200(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Invalid credentials"})
	})

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "bad"})
	require.Error(t, err)
	assert.Nil(t, st.Identity())
	assert.Equal(t, "Invalid credentials", st.Message())
}

func TestLogin_FailureLeavesIdentity(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)

	_, err = st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "bad"})
	require.Error(t, err)
	require.NotNil(t, st.Identity())
	assert.Equal(t, "u1", st.Identity().ID)
}

func profileHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie("accessToken"); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile fetched",
		"user": map[string]any{
			"_id": "u1", "role": "mentor", "name": "M",
			"expertise": "Go", "education_qualification": []string{"BSc"},
		},
	})
}

func TestProfile_Idempotent(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)
	b.handle("GET /api/v1/auth/profile", profileHandler)

	_, err := st.Login(context.Background(), Credentials{Email: "m@x.com", Password: "good"})
	require.NoError(t, err)

	first, err := st.Profile(context.Background())
	require.NoError(t, err)
	second, err := st.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, st.Identity(), second)
	assert.Equal(t, []string{"BSc"}, second.Education)
}

func TestProfile_ConcurrentCallersShareOneRequest(t *testing.T) {
	st, b := newTestStore(t)
	release := make(chan struct{})
	b.handle("GET /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"_id": "u1", "role": "admin"}})
	})

	var wg sync.WaitGroup
	results := make([]*domain.Identity, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = st.EnsureLoaded(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return b.count("GET /api/v1/auth/profile") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, b.count("GET /api/v1/auth/profile"))
	for _, who := range results {
		require.NotNil(t, who)
		assert.Equal(t, domain.RoleAdmin, who.Role)
	}

	// resolved sessions do not reload
	st.EnsureLoaded(context.Background())
	assert.Equal(t, 1, b.count("GET /api/v1/auth/profile"))
}

func TestProfile_UnauthorizedSignsOut(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)
	b.handle("GET /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Session expired"})
	})

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)

	_, err = st.Profile(context.Background())
	require.Error(t, err)
	assert.Nil(t, st.Identity())
	assert.Equal(t, "Session expired", st.Message())
}

func TestEnsureLoaded_TransportFailureRetriesLater(t *testing.T) {
	st, b := newTestStore(t)
	var fail atomic.Bool
	fail.Store(true)
	b.handle("GET /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusBadGateway, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"_id": "u1", "role": "student"}})
	})

	assert.Nil(t, st.EnsureLoaded(context.Background()))
	fail.Store(false)
	who := st.EnsureLoaded(context.Background())
	require.NotNil(t, who)
	assert.Equal(t, 2, b.count("GET /api/v1/auth/profile"))
}

func TestLogout_ClearsIdentityUnconditionally(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"success": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
		},
		"remote failure": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			st, b := newTestStore(t)
			b.handle("POST /api/v1/auth/login", loginHandler)
			b.handle("POST /api/v1/auth/logout", h)

			_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
			require.NoError(t, err)

			_ = st.Logout(context.Background())
			assert.Nil(t, st.Identity())
			assert.Empty(t, st.Gateway().Cookies())
		})
	}

	t.Run("backend unreachable", func(t *testing.T) {
		st, b := newTestStore(t)
		b.handle("POST /api/v1/auth/login", loginHandler)
		_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
		require.NoError(t, err)

		gw, err := gateway.New("http://127.0.0.1:1", gateway.DefaultClientConfig())
		require.NoError(t, err)
		st.gw = gw

		err = st.Logout(context.Background())
		require.Error(t, err)
		assert.Nil(t, st.Identity())
		assert.Equal(t, domain.FallbackMessage, st.Message())
	})
}

func TestLogout_WinsOverProfileIssuedDuringIt(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)
	b.handle("GET /api/v1/auth/profile", profileHandler)
	started := make(chan struct{})
	release := make(chan struct{})
	b.handle("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
	})

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- st.Logout(context.Background()) }()
	<-started

	// another tab refreshes while the backend still holds the credentials
	who, err := st.Profile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, who)
	require.NotNil(t, st.Identity())

	close(release)
	require.NoError(t, <-done)

	assert.Nil(t, st.Identity())
	assert.Empty(t, st.Gateway().Cookies())
}

func TestMessage_LaterIssuedOperationWins(t *testing.T) {
	st, b := newTestStore(t)
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	b.handle("POST /api/v1/auth/sendSignUpCode", func(w http.ResponseWriter, r *http.Request) {
		close(slowStarted)
		<-releaseSlow
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Code sent"})
	})
	b.handle("POST /api/v1/auth/login", loginHandler)

	done := make(chan error, 1)
	go func() { done <- st.SendVerificationCode(context.Background(), "a@x.com") }()
	<-slowStarted

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", st.Message())

	close(releaseSlow)
	require.NoError(t, <-done)

	// the earlier-issued reply resolved last and must not overwrite
	assert.Equal(t, "Invalid credentials", st.Message())
}

func TestMessage_EachOperationReportsItsOwn(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/sendForgetPasswordCode", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Reset code sent"})
	})
	b.handle("PUT /api/v1/auth/changePassword", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Old password is wrong"})
	})

	require.NoError(t, st.SendForgetPasswordCode(context.Background(), "a@x.com"))
	assert.Equal(t, "Reset code sent", st.Message())

	require.Error(t, st.ChangePassword(context.Background(), "x", "y"))
	assert.Equal(t, "Old password is wrong", st.Message())

	st.ResetMessage()
	assert.Empty(t, st.Message())
}

func TestVerifyCode_MalformedNeverReachesBackend(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/verifySignUpCode", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	for _, code := range []string{"", "12345", "1234567", "12a456", " 12345"} {
		v, err := st.VerifyCode(context.Background(), "a@x.com", code)
		require.Error(t, err, code)
		assert.True(t, v.IsZero())
		assert.True(t, domain.Is(err, "invalid_code"))
	}
	assert.Equal(t, 0, b.count("POST /api/v1/auth/verifySignUpCode"))
	assert.Equal(t, "Verification code must be 6 digits", st.Message())
}

func TestRegister_RequiresVerifiedEmail(t *testing.T) {
	st, b := newTestStore(t)
	var got map[string]any
	b.handle("POST /api/v1/auth/verifySignUpCode", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Email verified"})
	})
	b.handle("POST /api/v1/auth/mentor/register", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Registered"})
	})

	err := st.RegisterMentor(context.Background(), VerifiedEmail{}, Registration{Name: "M", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, domain.Is(err, "email_not_verified"))
	assert.Equal(t, 0, b.count("POST /api/v1/auth/mentor/register"))

	v, err := st.VerifyCode(context.Background(), "m@x.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "m@x.com", v.Email())

	found, ok := st.VerifiedFor("m@x.com")
	require.True(t, ok)
	assert.Equal(t, v, found)

	require.NoError(t, st.RegisterMentor(context.Background(), v, Registration{Name: "M", Password: "secret123"}))
	assert.Equal(t, "m@x.com", got["email"])
	assert.EqualValues(t, 123456, got["verificationCode"])
	assert.Equal(t, "Registered", st.Message())

	// tokens are single use
	err = st.RegisterMentor(context.Background(), v, Registration{Name: "M", Password: "secret123"})
	assert.True(t, domain.Is(err, "email_not_verified"))
}

func TestRegister_VerificationExpires(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/verifySignUpCode", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	clock := time.Now()
	st.now = func() time.Time { return clock }

	v, err := st.VerifyCode(context.Background(), "s@x.com", "654321")
	require.NoError(t, err)

	clock = clock.Add(verifiedTTL + time.Second)
	err = st.RegisterStudent(context.Background(), v, Registration{Name: "S", Password: "secret123"})
	assert.True(t, domain.Is(err, "email_not_verified"))
}

func TestDeleteUser_ClearsIdentityOnSuccessOnly(t *testing.T) {
	st, b := newTestStore(t)
	var fail atomic.Bool
	fail.Store(true)
	b.handle("POST /api/v1/auth/login", loginHandler)
	b.handle("PUT /api/v1/auth/deleteUser", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "Not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Account deleted"})
	})

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)

	require.Error(t, st.DeleteUser(context.Background()))
	assert.NotNil(t, st.Identity())

	fail.Store(false)
	require.NoError(t, st.DeleteUser(context.Background()))
	assert.Nil(t, st.Identity())
	assert.Equal(t, "Account deleted", st.Message())
}

func TestUpdateUser_MirrorsUpdatedUser(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("POST /api/v1/auth/login", loginHandler)
	b.handle("PUT /api/v1/auth/updateProfile", func(w http.ResponseWriter, r *http.Request) {
		var u map[string]any
		_ = json.NewDecoder(r.Body).Decode(&u)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     "Profile updated",
			"updatedUser": map[string]any{"_id": "u1", "role": "student", "name": u["name"]},
		})
	})

	_, err := st.Login(context.Background(), Credentials{Email: "a@x.com", Password: "good"})
	require.NoError(t, err)

	name := "Renamed"
	who, err := st.UpdateUser(context.Background(), ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", who.Name)
	assert.Equal(t, "Renamed", st.Identity().Name)
	assert.Equal(t, "Profile updated", st.Snapshot().Message)
}

func TestResetForgottenPassword(t *testing.T) {
	st, b := newTestStore(t)
	var got map[string]any
	b.handle("POST /api/v1/auth/forgetPassCode", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password reset"})
	})

	require.Error(t, st.ResetForgottenPassword(context.Background(), "a@x.com", "12", "newpass"))
	require.NoError(t, st.ResetForgottenPassword(context.Background(), "a@x.com", "000123", "newpass"))
	assert.EqualValues(t, 123, got["verificationCode"])
	assert.Equal(t, "newpass", got["newPass"])
	assert.Equal(t, "Password reset", st.Message())
}

func TestIdentity_ReturnsCopy(t *testing.T) {
	st, b := newTestStore(t)
	b.handle("GET /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"_id": "u1", "role": "student", "enrolledCourses": []string{"c1"}}})
	})

	_, err := st.Profile(context.Background())
	require.NoError(t, err)

	who := st.Identity()
	who.Name = "mutated"
	who.EnrolledCourses[0] = "x"

	assert.Empty(t, st.Identity().Name)
	assert.Equal(t, []string{"c1"}, st.Identity().EnrolledCourses)
}
