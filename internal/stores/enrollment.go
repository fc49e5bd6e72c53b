package stores

import (
	"context"
	"net/url"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
)

// CheckoutResult is a started checkout: the pending enrollment and the
// payment page the browser must be sent to.
type CheckoutResult struct {
	Enrollment  *domain.Enrollment `json:"enrollment"`
	RedirectURL string             `json:"redirect_url"`
	Message     string             `json:"message,omitempty"`
}

type EnrollmentStore struct {
	messageSlot
	gw session.Gateway
}

func NewEnrollmentStore(gw session.Gateway) *EnrollmentStore {
	return &EnrollmentStore{gw: gw}
}

type enrollEnvelope struct {
	gateway.Envelope
	Enrollment *domain.Enrollment `json:"enrollment"`
}

// Enroll creates a pending enrollment for courseID, optionally with a coupon.
func (s *EnrollmentStore) Enroll(ctx context.Context, courseID, couponCode string) (*domain.Enrollment, error) {
	t := s.begin()

	body := map[string]any{}
	if couponCode != "" {
		body["couponCode"] = map[string]string{"code": couponCode}
	}
	resp, err := s.gw.Post(ctx, "/enrollment/enroll/"+url.PathEscape(courseID), body)
	if err != nil {
		return nil, s.fail(t, err)
	}
	env, err := gateway.Decode[enrollEnvelope](resp)
	if err != nil {
		return nil, s.fail(t, err)
	}
	if env.Enrollment == nil || env.Enrollment.ID == "" {
		return nil, s.fail(t, domain.ErrRejected(env.Message))
	}
	s.ok(t, env.Message)
	return env.Enrollment, nil
}

// PayBill asks the backend to open a payment for enrollmentID and returns the
// payment page URL.
func (s *EnrollmentStore) PayBill(ctx context.Context, enrollmentID string) (string, error) {
	t := s.begin()
	resp, err := s.gw.Get(ctx, "/payment/payBill/"+url.PathEscape(enrollmentID), nil)
	if err != nil {
		return "", s.fail(t, err)
	}
	env, err := gateway.Decode[struct {
		gateway.Envelope
		URL string `json:"url"`
	}](resp)
	if err != nil {
		return "", s.fail(t, err)
	}
	if env.URL == "" {
		msg := env.Message
		if msg == "" {
			msg = "No payment URL"
		}
		return "", s.fail(t, domain.ErrRejected("Payment init failed: "+msg))
	}
	s.ok(t, env.Message)
	return env.URL, nil
}

// Checkout enrolls and opens the payment. Payment is only requested after
// the enrollment succeeded.
func (s *EnrollmentStore) Checkout(ctx context.Context, courseID, couponCode string) (CheckoutResult, error) {
	e, err := s.Enroll(ctx, courseID, couponCode)
	if err != nil {
		return CheckoutResult{}, err
	}
	enrollMsg := s.Message()

	redirect, err := s.PayBill(ctx, e.ID)
	if err != nil {
		return CheckoutResult{Enrollment: e}, err
	}
	msg := s.Message()
	if msg == "" {
		msg = enrollMsg
	}
	return CheckoutResult{Enrollment: e, RedirectURL: redirect, Message: msg}, nil
}

// ConfirmPayment reports a completed payment for enrollmentID back to the
// backend.
func (s *EnrollmentStore) ConfirmPayment(ctx context.Context, enrollmentID string) (*domain.Enrollment, error) {
	t := s.begin()
	resp, err := s.gw.Post(ctx, "/payment/success/"+url.PathEscape(enrollmentID), nil)
	if err != nil {
		return nil, s.fail(t, err)
	}
	env, err := gateway.Decode[enrollEnvelope](resp)
	if err != nil {
		return nil, s.fail(t, err)
	}
	s.ok(t, env.Message)
	return env.Enrollment, nil
}
