package stores

import (
	"context"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
)

type CouponStore struct {
	messageSlot
	gw session.Gateway
}

func NewCouponStore(gw session.Gateway) *CouponStore {
	return &CouponStore{gw: gw}
}

// Validate asks the backend whether code applies to courseID.
func (s *CouponStore) Validate(ctx context.Context, code, courseID string) (domain.Coupon, error) {
	t := s.begin()
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Coupon{}, s.fail(t, domain.ErrInvalidField("code", "required"))
	}

	resp, err := s.gw.Post(ctx, "/coupon/validate", map[string]string{
		"code":     code,
		"courseId": courseID,
	})
	if err != nil {
		return domain.Coupon{}, s.fail(t, err)
	}
	env, err := gateway.Decode[struct {
		gateway.Envelope
		Coupon *domain.Coupon `json:"coupon"`
	}](resp)
	if err != nil {
		return domain.Coupon{}, s.fail(t, err)
	}
	if env.Coupon == nil {
		return domain.Coupon{}, s.fail(t, domain.ErrRejected(env.Message))
	}
	s.ok(t, env.Message)
	return *env.Coupon, nil
}
