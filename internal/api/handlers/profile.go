package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/nav"
)

// Dashboard is one role's profile page.
type Dashboard struct {
	Name string
	Load func(ctx context.Context, svc *Services) (any, error)
}

type DashboardView struct {
	View string           `json:"view"`
	User *domain.Identity `json:"user"`
	Menu []nav.MenuItem   `json:"menu"`
	Data any              `json:"data"`
}

type mentorData struct {
	Expertise     string   `json:"expertise,omitempty"`
	Designation   string   `json:"designation,omitempty"`
	Department    string   `json:"department,omitempty"`
	JoinedCourses []string `json:"joined_courses"`
	MentorStatus  string   `json:"mentor_status,omitempty"`
}

// Dashboards is the role dispatch table of the profile page. Identities
// without a recognized role get the limited view, which loads nothing.
func Dashboards() *nav.Dispatcher[Dashboard] {
	return nav.MustDispatcher(map[domain.Role]Dashboard{
		domain.RoleStudent: {Name: "student", Load: func(ctx context.Context, svc *Services) (any, error) {
			return svc.Courses.GetEnrolledCourses(ctx)
		}},
		domain.RoleMentor: {Name: "mentor", Load: func(ctx context.Context, svc *Services) (any, error) {
			who := svc.Identity
			joined := who.JoinedCourses
			if joined == nil {
				joined = []string{}
			}
			return mentorData{
				Expertise:     who.Expertise,
				Designation:   who.Designation,
				Department:    who.DepartmentName,
				JoinedCourses: joined,
				MentorStatus:  who.MentorStatus,
			}, nil
		}},
		domain.RoleAdmin: {Name: "admin", Load: func(ctx context.Context, svc *Services) (any, error) {
			return svc.Admin.Dashboard(ctx)
		}},
	}, Dashboard{Name: "limited", Load: func(context.Context, *Services) (any, error) {
		return struct{}{}, nil
	}})
}

type ProfileHandler struct {
	services   ServicesFunc
	dashboards *nav.Dispatcher[Dashboard]
	menus      *nav.Dispatcher[[]nav.MenuItem]
}

func NewProfileHandler(services ServicesFunc, dashboards *nav.Dispatcher[Dashboard], menus *nav.Dispatcher[[]nav.MenuItem]) *ProfileHandler {
	return &ProfileHandler{services: services, dashboards: dashboards, menus: menus}
}

// Dashboard renders the signed-in user's role view. Route guards ensure an
// identity is present.
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if svc.Identity == nil {
		WriteError(w, r, domain.ErrAuthRequired())
		return
	}

	d := h.dashboards.Dispatch(svc.Identity)
	data, err := d.Load(r.Context(), svc)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardView{
		View: d.Name,
		User: svc.Identity,
		Menu: h.menus.Dispatch(svc.Identity),
		Data: data,
	})
}

func (h *ProfileHandler) MyEnrollments(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	mine, err := svc.Courses.GetEnrolledCourses(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}
