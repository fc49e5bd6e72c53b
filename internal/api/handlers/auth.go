package handlers

import (
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/go-chi/chi/v5"
)

// AuthHandler exposes the session store's identity operations. Every reply
// carries the message the store recorded for the operation.
type AuthHandler struct {
	codec    *session.CookieCodec
	registry *session.Registry
}

func NewAuthHandler(codec *session.CookieCodec, registry *session.Registry) *AuthHandler {
	return &AuthHandler{codec: codec, registry: registry}
}

func (h *AuthHandler) SendSignUpCode(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := st.SendVerificationCode(r.Context(), req.Email); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: st.Message()})
}

func (h *AuthHandler) VerifySignUpCode(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	v, err := st.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Outcome
		VerifiedEmail string `json:"verified_email"`
	}{Outcome{Success: true, Message: st.Message()}, v.Email()})
}

// Register finishes sign-up for the role in the path. The email must have
// been verified earlier in this session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	role, ok := domain.ParseRole(chi.URLParam(r, "role"))
	if !ok || role == domain.RoleAdmin {
		WriteError(w, r, domain.ErrInvalidField("role", "must be student or mentor"))
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	verified, _ := st.VerifiedFor(req.Email)
	reg := session.Registration{Name: req.Name, Password: req.Password}

	if role == domain.RoleMentor {
		err = st.RegisterMentor(r.Context(), verified, reg)
	} else {
		err = st.RegisterStudent(r.Context(), verified, reg)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Str("role", string(role)).Msg("account_registered")
	writeJSON(w, http.StatusCreated, Outcome{Success: true, Message: st.Message()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	who, err := st.Login(r.Context(), session.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	// the backend credentials now live in this session; a session id known
	// before sign-in must not reach them
	next := h.registry.Rotate(st)
	ck, err := h.codec.Encode(next.ID())
	if err != nil {
		h.registry.Remove(next.ID())
		WriteError(w, r, domain.ErrInternal(err))
		return
	}
	http.SetCookie(w, ck)
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: next.Message(), User: who})
}

// Logout signs out and rotates the browser session. The local identity is
// gone even when the backend call fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	logoutErr := st.Logout(r.Context())
	msg := st.Message()

	h.registry.Remove(st.ID())
	http.SetCookie(w, h.codec.Clear())

	if logoutErr != nil {
		WriteError(w, r, logoutErr)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: msg})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req session.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	who, err := st.UpdateUser(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: st.Message(), User: who})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := st.DeleteUser(r.Context()); err != nil {
		WriteError(w, r, err)
		return
	}
	msg := st.Message()
	h.registry.Remove(st.ID())
	http.SetCookie(w, h.codec.Clear())
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: msg})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := st.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: st.Message()})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := st.SendForgetPasswordCode(r.Context(), req.Email); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: st.Message()})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := st.ResetForgottenPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Outcome{Success: true, Message: st.Message()})
}
