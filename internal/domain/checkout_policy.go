package domain

// ActionPolicy tells the checkout view which buttons to offer. It is a hint
// for the UI; the backend still decides whether an enrollment is accepted.
type ActionPolicy struct {
	CanEnroll      bool   `json:"can_enroll"`
	CanApplyCoupon bool   `json:"can_apply_coupon"`
	CanContinue    bool   `json:"can_continue"`
	Reason         string `json:"reason,omitempty"`
}

// CalculateActionPolicy determines what the signed-in user can do with course.
// mine is the user's current enrollment list; degraded means it could not be
// fetched.
func CalculateActionPolicy(course *Course, who *Identity, mine []Enrollment, degraded bool) ActionPolicy {
	// 1. Auth Gate
	if who == nil {
		return ActionPolicy{Reason: "auth_required"}
	}

	// 2. Only students buy courses
	if who.Role != RoleStudent {
		return ActionPolicy{Reason: "students_only"}
	}

	// 3. Degraded Gate
	if degraded {
		return ActionPolicy{Reason: "enrollments_unavailable"}
	}

	// 4. Existing enrollment
	for _, e := range mine {
		if e.Course == nil || e.Course.ID != course.ID {
			continue
		}
		switch e.Status {
		case EnrollmentPaid:
			return ActionPolicy{CanContinue: true, Reason: "already_enrolled"}
		case EnrollmentPending:
			return ActionPolicy{CanEnroll: true, CanApplyCoupon: !course.IsFree, Reason: "payment_pending"}
		}
	}

	if course.IsFree {
		return ActionPolicy{CanEnroll: true, Reason: "free_course"}
	}
	return ActionPolicy{CanEnroll: true, CanApplyCoupon: true}
}

// ApplyCoupon returns the payable amount for price after coupon c.
// The result never drops below zero and honors MaxDiscount and MinSpend.
func ApplyCoupon(price float64, c Coupon) (total, discount float64) {
	if c.MinSpend > 0 && price < c.MinSpend {
		return price, 0
	}
	switch c.DiscountType {
	case "percentage":
		discount = price * c.Discount / 100
	default:
		discount = c.Discount
	}
	if c.MaxDiscount > 0 && discount > c.MaxDiscount {
		discount = c.MaxDiscount
	}
	if discount > price {
		discount = price
	}
	if discount < 0 {
		discount = 0
	}
	return price - discount, discount
}
