package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/fence"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/baechuer/tutorhub/services/web-bff/internal/stores"
)

type Catalog interface {
	Courses(ctx context.Context, q stores.CourseQuery) (domain.Page[domain.Course], error)
	Featured(ctx context.Context) ([]domain.Course, error)
	Popular(ctx context.Context, limit int) ([]domain.Course, error)
	Course(ctx context.Context, id string) (*domain.Course, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type MyCourses interface {
	GetEnrolledCourses(ctx context.Context) (stores.MyEnrollments, error)
}

type Enrollments interface {
	Checkout(ctx context.Context, courseID, couponCode string) (stores.CheckoutResult, error)
	ConfirmPayment(ctx context.Context, enrollmentID string) (*domain.Enrollment, error)
	Message() string
}

type Coupons interface {
	Validate(ctx context.Context, code, courseID string) (domain.Coupon, error)
	Message() string
}

type Moderation interface {
	List(ctx context.Context, list stores.AdminList, q stores.ListQuery) (domain.Page[domain.Member], error)
	Act(ctx context.Context, action stores.AdminAction, id string) error
	Dashboard(ctx context.Context) (stores.DashboardStats, error)
	Message() string
}

// Services is what the domain views read and write through for one request.
type Services struct {
	Catalog    Catalog
	Courses    MyCourses
	Enrollment Enrollments
	Coupons    Coupons
	Admin      Moderation
	Identity   *domain.Identity
	Slots      *ViewSlots
}

// ServicesFunc resolves the services of the request's session.
type ServicesFunc func(r *http.Request) (*Services, error)

// SessionServices backs every view with the auxiliary stores of the
// request's session.
func SessionServices(r *http.Request) (*Services, error) {
	st, err := sessionFrom(r)
	if err != nil {
		return nil, err
	}
	set := stores.For(st)
	return &Services{
		Catalog:    set.Catalog,
		Courses:    set.Courses,
		Enrollment: set.Enrollment,
		Coupons:    set.Coupons,
		Admin:      set.Admin,
		Identity:   st.EnsureLoaded(r.Context()),
		Slots:      slotsFor(st, viewID(r)),
	}, nil
}

// ViewIDHeader lets a browser tab name its own list views so two tabs of one
// session do not supersede each other. Without it the tab shares the
// session's slots.
const ViewIDHeader = "X-View-Id"

const (
	maxViewIDLen       = 64
	maxViewsPerSession = 16
)

func viewID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(ViewIDHeader))
	if len(id) > maxViewIDLen {
		return ""
	}
	return id
}

// ViewSlots fences the lists of one browser view: a newer fetch of the same
// list cancels the older one, and the older reply is never committed over
// the newer one.
type ViewSlots struct {
	Catalog fence.Slot[domain.Page[domain.Course]]
	Admin   map[stores.AdminList]*fence.Slot[domain.Page[domain.Member]]
}

func NewViewSlots() *ViewSlots {
	s := &ViewSlots{Admin: make(map[stores.AdminList]*fence.Slot[domain.Page[domain.Member]])}
	for _, l := range []stores.AdminList{
		stores.ListStudents, stores.ListMentors, stores.ListRequestedMentors,
		stores.ListRejectedMentors, stores.ListBlocked, stores.ListDeleted,
	} {
		s.Admin[l] = &fence.Slot[domain.Page[domain.Member]]{}
	}
	return s
}

type slotsKey struct{}

// sessionViews holds the slots of each view of one session. The session-wide
// slots under "" are never evicted; named views beyond the cap drop the
// oldest one.
type sessionViews struct {
	mu    sync.Mutex
	byID  map[string]*ViewSlots
	order []string
}

func (v *sessionViews) get(id string) *ViewSlots {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.byID[id]; ok {
		return s
	}
	s := NewViewSlots()
	v.byID[id] = s
	if id == "" {
		return s
	}
	v.order = append(v.order, id)
	if len(v.order) > maxViewsPerSession {
		delete(v.byID, v.order[0])
		v.order = v.order[1:]
	}
	return s
}

func slotsFor(st *session.Store, view string) *ViewSlots {
	views := st.Attachment(slotsKey{}, func() any {
		return &sessionViews{byID: make(map[string]*ViewSlots)}
	}).(*sessionViews)
	return views.get(view)
}

// fenced runs fetch inside slot. Only the newest issued fetch may commit;
// an older one that still finishes gets the superseded error.
func fenced[T any](ctx context.Context, slot *fence.Slot[T], fetch func(context.Context) (T, error)) (T, error) {
	ctx, ticket, done := slot.Begin(ctx)
	defer done()

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		if !slot.Current(ticket) {
			return zero, domain.ErrSuperseded()
		}
		return zero, err
	}
	if !slot.Commit(ticket, v) || !slot.Current(ticket) {
		var zero T
		return zero, domain.ErrSuperseded()
	}
	return v, nil
}
