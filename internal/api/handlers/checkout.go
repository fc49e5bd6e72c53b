package handlers

import (
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/stores"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

type CheckoutHandler struct {
	services ServicesFunc
}

func NewCheckoutHandler(services ServicesFunc) *CheckoutHandler {
	return &CheckoutHandler{services: services}
}

type CheckoutView struct {
	Course   *domain.Course      `json:"course"`
	Price    float64             `json:"price"`
	Actions  domain.ActionPolicy `json:"actions"`
	Degraded *DegradedInfo       `json:"degraded,omitempty"`
}

type DegradedInfo struct {
	Enrollments string `json:"enrollments"`
}

// View assembles the checkout page: the course and what the signed-in user
// may do with it. A failed enrollment lookup degrades the actions instead of
// failing the page.
func (h *CheckoutHandler) View(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	courseID := chi.URLParam(r, "id")

	var (
		course  *domain.Course
		mine    stores.MyEnrollments
		mineErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		course, err = svc.Catalog.Course(ctx, courseID)
		return err
	})
	if svc.Identity != nil && svc.Identity.Role == domain.RoleStudent {
		g.Go(func() error {
			mine, mineErr = svc.Courses.GetEnrolledCourses(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		WriteError(w, r, err)
		return
	}

	view := CheckoutView{Course: course, Price: course.Price}
	if mineErr != nil {
		logger.Ctx(r.Context()).Warn().Err(mineErr).Msg("checkout_enrollments_degraded")
		view.Degraded = &DegradedInfo{Enrollments: domain.MessageOf(mineErr)}
	}
	view.Actions = domain.CalculateActionPolicy(course, svc.Identity, mine.Enrollments, mineErr != nil)
	writeJSON(w, http.StatusOK, view)
}

type CouponQuote struct {
	Coupon   domain.Coupon `json:"coupon"`
	Price    float64       `json:"price"`
	Discount float64       `json:"discount"`
	Total    float64       `json:"total"`
	Message  string        `json:"message"`
}

// ApplyCoupon validates a coupon with the backend and quotes the discounted
// total. The quote is informational; the backend prices the enrollment.
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	courseID := chi.URLParam(r, "id")

	course, err := svc.Catalog.Course(r.Context(), courseID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if course.IsFree {
		WriteError(w, r, domain.ErrInvalidField("code", "free courses take no coupon"))
		return
	}

	coupon, err := svc.Coupons.Validate(r.Context(), req.Code, courseID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	total, discount := domain.ApplyCoupon(course.Price, coupon)
	writeJSON(w, http.StatusOK, CouponQuote{
		Coupon:   coupon,
		Price:    course.Price,
		Discount: discount,
		Total:    total,
		Message:  svc.Coupons.Message(),
	})
}

// Checkout enrolls and opens the payment. The browser is only given a
// redirect once both steps succeeded.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if svc.Identity == nil || svc.Identity.Role != domain.RoleStudent {
		WriteError(w, r, domain.ErrInsufficientRole(domain.RoleStudent))
		return
	}

	res, err := svc.Enrollment.Checkout(r.Context(), chi.URLParam(r, "id"), req.CouponCode)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	logger.Ctx(r.Context()).Info().Str("enrollment_id", res.Enrollment.ID).Msg("checkout_started")
	writeJSON(w, http.StatusOK, res)
}

// ConfirmPayment is called by the payment result page.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	svc, err := h.services(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	e, err := svc.Enrollment.ConfirmPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Enrollment *domain.Enrollment `json:"enrollment"`
		Message    string             `json:"message"`
	}{e, svc.Enrollment.Message()})
}
