package stores

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T, mux *http.ServeMux) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	gw, err := gateway.New(srv.URL+"/api/v1", gateway.DefaultClientConfig())
	require.NoError(t, err)
	return gw
}

func TestFor_OneSetPerSession(t *testing.T) {
	gw := newBackend(t, http.NewServeMux())
	a := session.NewStore("a", gw)
	b := session.NewStore("b", gw)

	assert.Same(t, For(a), For(a))
	assert.NotSame(t, For(a), For(b))
}

func TestCatalog_Courses(t *testing.T) {
	mux := http.NewServeMux()
	var query map[string]string
	mux.HandleFunc("GET /api/v1/course/get-courses", func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"courses":   []map[string]any{{"_id": "c1", "title": "Go"}, {"_id": "c2", "title": "Rust"}},
			"total":     "42",
			"totalPage": 3,
		})
	})
	c := NewCatalog(newBackend(t, mux))

	page, err := c.Courses(context.Background(), CourseQuery{Page: 2, Search: "go", Sort: "price"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"pageNumber": "2", "limit": "20", "search": "go", "sort": "price"}, query)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
}

func TestCatalog_CourseNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/course/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "c1" {
			writeJSON(w, http.StatusOK, map[string]any{"course": map[string]any{"_id": "c1", "price": 100}})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Course not found"})
	})
	c := NewCatalog(newBackend(t, mux))

	course, err := c.Course(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, course.Price)

	_, err = c.Course(context.Background(), "nope")
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusNotFound, de.Status)
	assert.Equal(t, "Course not found", de.Message)
}

func TestCourseStore_GetEnrolledCourses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/course/getMyEnrollments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     "Enrollments fetched",
			"enrollments": []map[string]any{{"_id": "e1", "status": "paid", "isCompleted": true}},
			"total":       1,
			"completed":   1,
		})
	})
	s := NewCourseStore(newBackend(t, mux))

	mine, err := s.GetEnrolledCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
	assert.Equal(t, 1, mine.Completed)
	assert.Equal(t, domain.EnrollmentPaid, mine.Enrollments[0].Status)
	assert.Equal(t, "Enrollments fetched", s.Message())

	s.ResetMessage()
	assert.Empty(t, s.Message())
}

func TestCourseStore_FailureWritesMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/course/getMyEnrollments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Login first"})
	})
	s := NewCourseStore(newBackend(t, mux))

	_, err := s.GetEnrolledCourses(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Login first", s.Message())
}

func TestEnrollmentStore_Checkout(t *testing.T) {
	mux := http.NewServeMux()
	var enrollBody map[string]any
	mux.HandleFunc("POST /api/v1/enrollment/enroll/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&enrollBody)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":    true,
			"message":    "Enrollment created",
			"enrollment": map[string]any{"_id": "e9", "status": "pending"},
		})
	})
	mux.HandleFunc("GET /api/v1/payment/payBill/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"url": "https://pay.test/session/" + r.PathValue("id")})
	})
	s := NewEnrollmentStore(newBackend(t, mux))

	res, err := s.Checkout(context.Background(), "c1", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/session/e9", res.RedirectURL)
	assert.Equal(t, "e9", res.Enrollment.ID)
	assert.Equal(t, "Enrollment created", res.Message)
	assert.Equal(t, map[string]any{"code": "SAVE10"}, enrollBody["couponCode"])
}

func TestEnrollmentStore_FailedEnrollNeverPays(t *testing.T) {
	mux := http.NewServeMux()
	var paid atomic.Int32
	mux.HandleFunc("POST /api/v1/enrollment/enroll/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Already enrolled"})
	})
	mux.HandleFunc("GET /api/v1/payment/payBill/{id}", func(w http.ResponseWriter, r *http.Request) {
		paid.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"url": "https://pay.test"})
	})
	s := NewEnrollmentStore(newBackend(t, mux))

	_, err := s.Checkout(context.Background(), "c1", "")
	require.Error(t, err)
	assert.Equal(t, "Already enrolled", s.Message())
	assert.Zero(t, paid.Load())
}

func TestEnrollmentStore_PayBillWithoutURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/payment/payBill/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Gateway down"})
	})
	s := NewEnrollmentStore(newBackend(t, mux))

	_, err := s.PayBill(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, "Payment init failed: Gateway down", s.Message())
}

func TestEnrollmentStore_ConfirmPayment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/payment/success/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    "Payment successful",
			"enrollment": map[string]any{"_id": r.PathValue("id"), "status": "paid"},
		})
	})
	s := NewEnrollmentStore(newBackend(t, mux))

	e, err := s.ConfirmPayment(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPaid, e.Status)
	assert.Equal(t, "Payment successful", s.Message())
}

func TestCouponStore_Validate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/coupon/validate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["code"] != "SAVE10" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid coupon"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Coupon applied",
			"coupon":  map[string]any{"code": "SAVE10", "discount": 10, "discountType": "percentage"},
		})
	})
	s := NewCouponStore(newBackend(t, mux))

	c, err := s.Validate(context.Background(), " SAVE10 ", "c1")
	require.NoError(t, err)
	assert.Equal(t, "percentage", c.DiscountType)
	assert.Equal(t, "Coupon applied", s.Message())

	_, err = s.Validate(context.Background(), "NOPE", "c1")
	require.Error(t, err)
	assert.Equal(t, "Invalid coupon", s.Message())

	_, err = s.Validate(context.Background(), "  ", "c1")
	assert.True(t, domain.Is(err, "invalid_field"))
}

func TestAdminStore_ListAndAct(t *testing.T) {
	mux := http.NewServeMux()
	var actedOn string
	mux.HandleFunc("GET /api/v1/admin/blockedAccount", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"blockedAccounts": []map[string]any{{"_id": "u1", "isBlocked": true}},
		})
	})
	mux.HandleFunc("GET /api/v1/admin/students", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "ann", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{
			"students":    []map[string]any{{"_id": "s1", "name": "Ann"}},
			"total":       11,
			"totalPages":  2,
			"currentPage": 2,
		})
	})
	mux.HandleFunc("PUT /api/v1/admin/unblock/{id}", func(w http.ResponseWriter, r *http.Request) {
		actedOn = r.PathValue("id")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User unblocked"})
	})
	s := NewAdminStore(newBackend(t, mux))

	blocked, err := s.List(context.Background(), ListBlocked, ListQuery{})
	require.NoError(t, err)
	require.Len(t, blocked.Items, 1)
	assert.True(t, blocked.Items[0].IsBlocked)
	assert.Equal(t, 1, blocked.TotalPages)

	students, err := s.List(context.Background(), ListStudents, ListQuery{Page: 2, Limit: 10, Search: "ann"})
	require.NoError(t, err)
	assert.Equal(t, 11, students.Total)
	assert.Equal(t, 2, students.CurrentPage)

	require.NoError(t, s.Act(context.Background(), ActionUnblock, "u1"))
	assert.Equal(t, "u1", actedOn)
	assert.Equal(t, "User unblocked", s.Message())
	assert.Equal(t, ListBlocked, ActionUnblock.ListFor())

	err = s.Act(context.Background(), AdminAction("promote"), "u1")
	assert.True(t, domain.Is(err, "unknown_action"))
}

func TestAdminStore_Dashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/students", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"students": []any{}, "total": 120})
	})
	mux.HandleFunc("GET /api/v1/admin/mentors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"mentors": []any{}, "count": 4})
	})
	mux.HandleFunc("GET /api/v1/course/get-courses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "createdAt:desc", r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, map[string]any{"courses": []map[string]any{{"_id": "c1"}}, "total": 30})
	})
	mux.HandleFunc("GET /api/v1/course/get-popular-courses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"courses": []map[string]any{
			{"_id": "c1", "enrollments": 10},
			{"_id": "c2", "enrollments": 2},
		}})
	})
	s := NewAdminStore(newBackend(t, mux))

	stats, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalStudents)
	assert.Equal(t, 4, stats.PendingMentors)
	assert.Equal(t, 30, stats.TotalCourses)
	assert.Len(t, stats.RecentCourses, 1)
	assert.Equal(t, 60.0, stats.EstimatedRevenue)
}

func TestAdminStore_DashboardFailsAsOne(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/admin/mentors" {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "Admins only"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	s := NewAdminStore(newBackend(t, mux))

	_, err := s.Dashboard(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Admins only", domain.MessageOf(err))
}

func TestMessageSlot_OrderedByIssue(t *testing.T) {
	var m messageSlot
	first := m.begin()
	second := m.begin()

	m.ok(second, "newer")
	m.ok(first, "older")
	assert.Equal(t, "newer", m.Message())
}
