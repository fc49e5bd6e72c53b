package stores

import (
	"context"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
)

// MyEnrollments is the signed-in student's enrollment list with its counters.
type MyEnrollments struct {
	Enrollments []domain.Enrollment `json:"enrollments"`
	Total       int                 `json:"total"`
	Completed   int                 `json:"completed"`
}

type CourseStore struct {
	messageSlot
	gw session.Gateway
}

func NewCourseStore(gw session.Gateway) *CourseStore {
	return &CourseStore{gw: gw}
}

func (s *CourseStore) GetEnrolledCourses(ctx context.Context) (MyEnrollments, error) {
	t := s.begin()
	resp, err := s.gw.Get(ctx, "/course/getMyEnrollments", nil)
	if err != nil {
		return MyEnrollments{}, s.fail(t, err)
	}
	env, err := gateway.Decode[struct {
		gateway.Envelope
		Enrollments []domain.Enrollment `json:"enrollments"`
		Total       count               `json:"total"`
		Completed   count               `json:"completed"`
	}](resp)
	if err != nil {
		return MyEnrollments{}, s.fail(t, err)
	}

	out := MyEnrollments{
		Enrollments: env.Enrollments,
		Total:       int(env.Total),
		Completed:   int(env.Completed),
	}
	if out.Enrollments == nil {
		out.Enrollments = []domain.Enrollment{}
	}
	s.ok(t, env.Message)
	return out, nil
}
