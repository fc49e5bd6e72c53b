package stores

import (
	"context"
	"net/url"
	"strconv"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/baechuer/tutorhub/services/web-bff/internal/tracing"
	"golang.org/x/sync/errgroup"
)

// AdminList names one moderation panel.
type AdminList string

const (
	ListStudents         AdminList = "students"
	ListMentors          AdminList = "mentors"
	ListRequestedMentors AdminList = "mentor-requests"
	ListRejectedMentors  AdminList = "rejected-mentors"
	ListBlocked          AdminList = "blocked-accounts"
	ListDeleted          AdminList = "deleted-accounts"
)

type listRoute struct {
	path string
	key  string
}

var adminLists = map[AdminList]listRoute{
	ListStudents:         {"/admin/students", "students"},
	ListMentors:          {"/admin/mentors", "mentors"},
	ListRequestedMentors: {"/admin/requestedMentors", "mentors"},
	ListRejectedMentors:  {"/admin/rejectedMentors", "mentors"},
	ListBlocked:          {"/admin/blockedAccount", "blockedAccounts"},
	ListDeleted:          {"/admin/getDeletedAccounts", "deletedAccounts"},
}

func ParseAdminList(s string) (AdminList, bool) {
	l := AdminList(s)
	_, ok := adminLists[l]
	return l, ok
}

// AdminAction is a moderation mutation issued with PUT /admin/{action}/{id}.
type AdminAction string

const (
	ActionBlock         AdminAction = "block"
	ActionUnblock       AdminAction = "unblock"
	ActionApproveMentor AdminAction = "approveMentor"
	ActionRejectMentor  AdminAction = "rejectMentor"
	ActionDelete        AdminAction = "delete"
	ActionUndoDelete    AdminAction = "undoDelete"
)

// actionLists is the panel each action is issued from; it is re-fetched after
// the action settles.
var actionLists = map[AdminAction]AdminList{
	ActionBlock:         ListStudents,
	ActionUnblock:       ListBlocked,
	ActionApproveMentor: ListRequestedMentors,
	ActionRejectMentor:  ListRequestedMentors,
	ActionDelete:        ListStudents,
	ActionUndoDelete:    ListDeleted,
}

func ParseAdminAction(s string) (AdminAction, bool) {
	a := AdminAction(s)
	_, ok := actionLists[a]
	return a, ok
}

// ListFor returns the panel an action is issued from.
func (a AdminAction) ListFor() AdminList { return actionLists[a] }

type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// DashboardStats feeds the admin dashboard.
type DashboardStats struct {
	TotalStudents    int             `json:"total_students"`
	PendingMentors   int             `json:"pending_mentors"`
	TotalCourses     int             `json:"total_courses"`
	EstimatedRevenue float64         `json:"estimated_revenue"`
	RecentCourses    []domain.Course `json:"recent_courses"`
	PopularCourses   []domain.Course `json:"popular_courses"`
}

// revenuePerEnrollment is the flat rate the dashboard estimate uses.
const revenuePerEnrollment = 5

type AdminStore struct {
	messageSlot
	gw session.Gateway
}

func NewAdminStore(gw session.Gateway) *AdminStore {
	return &AdminStore{gw: gw}
}

func (s *AdminStore) List(ctx context.Context, list AdminList, q ListQuery) (domain.Page[domain.Member], error) {
	route, ok := adminLists[list]
	if !ok {
		return domain.Page[domain.Member]{}, domain.New(domain.KindNotFound, "unknown_list", "unknown admin list")
	}
	resp, err := s.gw.Get(ctx, route.path, q.values())
	if err != nil {
		return domain.Page[domain.Member]{}, gateway.ToDomain(err)
	}
	items, meta, err := decodeList[domain.Member](resp, route.key)
	if err != nil {
		return domain.Page[domain.Member]{}, err
	}
	return toPage(items, meta), nil
}

// Act runs a moderation action and records its message.
func (s *AdminStore) Act(ctx context.Context, action AdminAction, id string) error {
	t := s.begin()
	if _, ok := actionLists[action]; !ok {
		return s.fail(t, domain.New(domain.KindNotFound, "unknown_action", "unknown admin action"))
	}
	resp, err := s.gw.Put(ctx, "/admin/"+string(action)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return s.fail(t, err)
	}
	env, err := gateway.Decode[gateway.Envelope](resp)
	if err != nil {
		return s.fail(t, err)
	}
	s.ok(t, env.Message)
	return nil
}

// Dashboard gathers the admin statistics. The four reads run concurrently;
// any failure fails the whole dashboard.
func (s *AdminStore) Dashboard(ctx context.Context) (DashboardStats, error) {
	ctx, span := tracing.StartSpan(ctx, "admin.dashboard")
	defer span.End()

	var (
		stats    DashboardStats
		students pageMeta
		mentors  pageMeta
		courses  pageMeta
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.gw.Get(gctx, "/admin/students", nil)
		if err != nil {
			return err
		}
		_, students, err = decodeList[domain.Member](resp, "students")
		return err
	})
	g.Go(func() error {
		resp, err := s.gw.Get(gctx, "/admin/mentors", nil)
		if err != nil {
			return err
		}
		_, mentors, err = decodeList[domain.Member](resp, "mentors")
		return err
	})
	g.Go(func() error {
		resp, err := s.gw.Get(gctx, "/course/get-courses", url.Values{"limit": {"5"}, "sort": {"createdAt:desc"}})
		if err != nil {
			return err
		}
		stats.RecentCourses, courses, err = decodeList[domain.Course](resp, "courses")
		return err
	})
	g.Go(func() error {
		resp, err := s.gw.Get(gctx, "/course/get-popular-courses", url.Values{"limit": {"5"}, "sort": {"createdAt:desc"}})
		if err != nil {
			return err
		}
		stats.PopularCourses, _, err = decodeList[domain.Course](resp, "courses")
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, gateway.ToDomain(err)
	}

	stats.TotalStudents = int(students.Total)
	stats.PendingMentors = int(mentors.Count)
	stats.TotalCourses = int(courses.Total)
	if stats.RecentCourses == nil {
		stats.RecentCourses = []domain.Course{}
	}
	if stats.PopularCourses == nil {
		stats.PopularCourses = []domain.Course{}
	}
	for _, c := range stats.PopularCourses {
		stats.EstimatedRevenue += float64(c.Enrollments * revenuePerEnrollment)
	}
	return stats, nil
}
