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
	"golang.org/x/sync/errgroup"
)

const (
	homePopularLimit = 4
	maxCourseLimit   = 100
)

type ViewsHandler struct {
	services ServicesFunc
}

func NewViewsHandler(services ServicesFunc) *ViewsHandler {
	return &ViewsHandler{services: services}
}

type HomeView struct {
	Featured   []domain.Course   `json:"featured"`
	Popular    []domain.Course   `json:"popular"`
	Categories []domain.Category `json:"categories"`
	Degraded   map[string]string `json:"degraded,omitempty"`
}

// Home loads its three sections concurrently. A section that fails is
// returned empty and named in Degraded; the others are unaffected.
func (h *ViewsHandler) Home(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var (
		view                         HomeView
		featErr, popErr, categoryErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		view.Featured, featErr = svc.Catalog.Featured(ctx)
		return nil
	})
	g.Go(func() error {
		view.Popular, popErr = svc.Catalog.Popular(ctx, homePopularLimit)
		return nil
	})
	g.Go(func() error {
		view.Categories, categoryErr = svc.Catalog.Categories(ctx)
		return nil
	})
	_ = g.Wait()

	view.Degraded = map[string]string{}
	degrade(r.Context(), view.Degraded, "featured", featErr, &view.Featured)
	degrade(r.Context(), view.Degraded, "popular", popErr, &view.Popular)
	degrade(r.Context(), view.Degraded, "categories", categoryErr, &view.Categories)
	if len(view.Degraded) == 0 {
		view.Degraded = nil
	}
	writeJSON(w, http.StatusOK, view)
}

func degrade[T any](ctx context.Context, marks map[string]string, section string, err error, items *[]T) {
	if err == nil {
		if *items == nil {
			*items = []T{}
		}
		return
	}
	logger.Ctx(ctx).Warn().Err(err).Str("section", section).Msg("view_section_degraded")
	marks[section] = domain.MessageOf(err)
	*items = []T{}
}

type CatalogView struct {
	Courses    domain.Page[domain.Course] `json:"courses"`
	Categories []domain.Category          `json:"categories"`
	Degraded   map[string]string          `json:"degraded,omitempty"`
}

func parseCourseQuery(r *http.Request) stores.CourseQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = stores.DefaultCourseLimit
	}
	if limit > maxCourseLimit {
		limit = maxCourseLimit
	}
	if page < 1 {
		page = 1
	}
	return stores.CourseQuery{
		Page:     page,
		Limit:    limit,
		Search:   strings.TrimSpace(q.Get("search")),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
}

// Courses is the filterable catalog. Listings run in the session's catalog
// slot so a quick succession of filter changes resolves to the newest one.
func (h *ViewsHandler) Courses(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	query := parseCourseQuery(r)

	var (
		view        CatalogView
		categoryErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		page, err := fenced(ctx, &svc.Slots.Catalog, func(ctx context.Context) (domain.Page[domain.Course], error) {
			return svc.Catalog.Courses(ctx, query)
		})
		view.Courses = page
		return err
	})
	g.Go(func() error {
		view.Categories, categoryErr = svc.Catalog.Categories(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		WriteError(w, r, err)
		return
	}

	view.Degraded = map[string]string{}
	degrade(r.Context(), view.Degraded, "categories", categoryErr, &view.Categories)
	if len(view.Degraded) == 0 {
		view.Degraded = nil
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ViewsHandler) Course(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	course, err := svc.Catalog.Course(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Course *domain.Course `json:"course"`
	}{course})
}
