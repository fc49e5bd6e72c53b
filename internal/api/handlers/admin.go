package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/stores"
	"github.com/go-chi/chi/v5"
)

const defaultAdminLimit = 10

type AdminHandler struct {
	services ServicesFunc
}

func NewAdminHandler(services ServicesFunc) *AdminHandler {
	return &AdminHandler{services: services}
}

func parseListQuery(r *http.Request) stores.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultAdminLimit
	}
	return stores.ListQuery{Page: page, Limit: limit, Search: strings.TrimSpace(q.Get("search"))}
}

func (h *AdminHandler) fetch(ctx context.Context, svc *Services, list stores.AdminList, q stores.ListQuery) (domain.Page[domain.Member], error) {
	slot := svc.Slots.Admin[list]
	return fenced(ctx, slot, func(ctx context.Context) (domain.Page[domain.Member], error) {
		return svc.Admin.List(ctx, list, q)
	})
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	list, ok := stores.ParseAdminList(chi.URLParam(r, "list"))
	if !ok {
		WriteError(w, r, domain.New(domain.KindNotFound, "unknown_list", "unknown admin list"))
		return
	}

	page, err := h.fetch(r.Context(), svc, list, parseListQuery(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type ActionResult struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	List    stores.AdminList           `json:"list"`
	Items   domain.Page[domain.Member] `json:"items"`
}

// Act runs a moderation action, then re-fetches the panel it came from so
// the browser gets the backend's view of the result.
func (h *AdminHandler) Act(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	action, ok := stores.ParseAdminAction(chi.URLParam(r, "action"))
	if !ok {
		WriteError(w, r, domain.New(domain.KindNotFound, "unknown_action", "unknown admin action"))
		return
	}
	id := chi.URLParam(r, "id")

	if err := svc.Admin.Act(r.Context(), action, id); err != nil {
		WriteError(w, r, err)
		return
	}
	msg := svc.Admin.Message()
	logger.Ctx(r.Context()).Info().Str("action", string(action)).Str("target", id).Msg("admin_action")

	list := action.ListFor()
	page, err := h.fetch(r.Context(), svc, list, parseListQuery(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResult{Success: true, Message: msg, List: list, Items: page})
}
