package handlers

import (
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/nav"
)

type SessionView struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user"`
	Message       string           `json:"message"`
	Menu          []nav.MenuItem   `json:"menu"`
}

type SessionHandler struct {
	menus *nav.Dispatcher[[]nav.MenuItem]
}

func NewSessionHandler(menus *nav.Dispatcher[[]nav.MenuItem]) *SessionHandler {
	return &SessionHandler{menus: menus}
}

// Get returns the session once its first profile load has settled.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	who := st.EnsureLoaded(r.Context())
	menu := nav.Guest()
	if who != nil {
		menu = h.menus.Dispatch(who)
	}
	writeJSON(w, http.StatusOK, SessionView{
		Authenticated: who != nil,
		User:          who,
		Message:       st.Message(),
		Menu:          menu,
	})
}

func (h *SessionHandler) ResetMessage(w http.ResponseWriter, r *http.Request) {
	st, err := sessionFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	st.ResetMessage()
	w.WriteHeader(http.StatusNoContent)
}
