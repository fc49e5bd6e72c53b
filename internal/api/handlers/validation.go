package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// normalizer is implemented by DTOs whose fields are cleaned up before
// validation.
type normalizer interface {
	normalize()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRequest validates a request DTO and returns a formatted error
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return domain.ErrInvalidField("body", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}
	first := validationErrors[0]
	de := domain.ErrInvalidField(strings.ToLower(first.Field()), first.Tag())
	de.Message = strings.Join(messages, "; ")
	return de
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ----------------------
// Request DTOs
// ----------------------

type emailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (r *emailRequest) normalize() { r.Email = normalizeEmail(r.Email) }

// The code is checked by the session store so a malformed one is reported
// through the status message like any other failure.
type verifyRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"required"`
}

func (r *verifyRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *registerRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *loginRequest) normalize() { r.Email = normalizeEmail(r.Email) }

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,max=72"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72,nefield=OldPassword"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

func (r *resetPasswordRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

type couponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

func (r *couponRequest) normalize() { r.Code = strings.TrimSpace(r.Code) }

type checkoutRequest struct {
	CouponCode string `json:"coupon_code" validate:"max=64"`
}
