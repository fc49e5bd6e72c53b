package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/stores"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Courses(ctx context.Context, q stores.CourseQuery) (domain.Page[domain.Course], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.Page[domain.Course]), args.Error(1)
}

func (m *mockCatalog) Featured(ctx context.Context) ([]domain.Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *mockCatalog) Popular(ctx context.Context, limit int) ([]domain.Course, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *mockCatalog) Course(ctx context.Context, id string) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *mockCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

type mockMyCourses struct {
	mock.Mock
}

func (m *mockMyCourses) GetEnrolledCourses(ctx context.Context) (stores.MyEnrollments, error) {
	args := m.Called(ctx)
	return args.Get(0).(stores.MyEnrollments), args.Error(1)
}

type mockEnrollments struct {
	mock.Mock
}

func (m *mockEnrollments) Checkout(ctx context.Context, courseID, couponCode string) (stores.CheckoutResult, error) {
	args := m.Called(ctx, courseID, couponCode)
	return args.Get(0).(stores.CheckoutResult), args.Error(1)
}

func (m *mockEnrollments) ConfirmPayment(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *mockEnrollments) Message() string {
	return m.Called().String(0)
}

type mockCoupons struct {
	mock.Mock
}

func (m *mockCoupons) Validate(ctx context.Context, code, courseID string) (domain.Coupon, error) {
	args := m.Called(ctx, code, courseID)
	return args.Get(0).(domain.Coupon), args.Error(1)
}

func (m *mockCoupons) Message() string {
	return m.Called().String(0)
}

type mockModeration struct {
	mock.Mock
}

func (m *mockModeration) List(ctx context.Context, list stores.AdminList, q stores.ListQuery) (domain.Page[domain.Member], error) {
	args := m.Called(ctx, list, q)
	return args.Get(0).(domain.Page[domain.Member]), args.Error(1)
}

func (m *mockModeration) Act(ctx context.Context, action stores.AdminAction, id string) error {
	return m.Called(ctx, action, id).Error(0)
}

func (m *mockModeration) Dashboard(ctx context.Context) (stores.DashboardStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(stores.DashboardStats), args.Error(1)
}

func (m *mockModeration) Message() string {
	return m.Called().String(0)
}

type mocks struct {
	catalog    *mockCatalog
	courses    *mockMyCourses
	enrollment *mockEnrollments
	coupons    *mockCoupons
	admin      *mockModeration
	slots      *ViewSlots
}

func newMocks() *mocks {
	return &mocks{
		catalog:    new(mockCatalog),
		courses:    new(mockMyCourses),
		enrollment: new(mockEnrollments),
		coupons:    new(mockCoupons),
		admin:      new(mockModeration),
		slots:      NewViewSlots(),
	}
}

// services returns a ServicesFunc backed by the mocks and signed in as who.
func (m *mocks) services(who *domain.Identity) ServicesFunc {
	return func(*http.Request) (*Services, error) {
		return &Services{
			Catalog:    m.catalog,
			Courses:    m.courses,
			Enrollment: m.enrollment,
			Coupons:    m.coupons,
			Admin:      m.admin,
			Identity:   who,
			Slots:      m.slots,
		}, nil
	}
}

func student() *domain.Identity {
	return &domain.Identity{ID: "s1", Name: "Sam", Role: domain.RoleStudent}
}
func mentor() *domain.Identity {
	return &domain.Identity{ID: "m1", Name: "Mia", Role: domain.RoleMentor, Expertise: "Go", JoinedCourses: []string{"c1"}}
}
func admin() *domain.Identity { return &domain.Identity{ID: "a1", Name: "Ada", Role: domain.RoleAdmin} }

// newRequest builds a request carrying chi URL params given as key, value pairs.
func newRequest(method, target, body string, params ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
