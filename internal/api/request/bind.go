// Package request binds and validates JSON bodies and query strings for the
// HTTP handlers.
package request

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// RegisterValidators adds the date, clock, plan and trimmed_email tags to
// gin's validator and reports fields by their json names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := booking.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := booking.ParseClock(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			return billing.PlanType(fl.Field().String()).Valid()
		})
		// Handlers trim addresses before storing them, so surrounding
		// whitespace is not a validation failure.
		_ = v.RegisterValidation("trimmed_email", func(fl validator.FieldLevel) bool {
			return v.Var(strings.TrimSpace(fl.Field().String()), "email") == nil
		})
	})
}

// JSON binds the body into dst. On failure it writes the 400 response and
// returns false.
func JSON(c *gin.Context, dst any) bool {
	RegisterValidators()
	if err := c.ShouldBindJSON(dst); err != nil {
		Invalid(c, err)
		return false
	}
	return true
}

func Query(c *gin.Context, dst any) bool {
	RegisterValidators()
	if err := c.ShouldBindQuery(dst); err != nil {
		Invalid(c, err)
		return false
	}
	return true
}

func Invalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": Details(err),
	})
}

// FieldInvalid writes a 400 for a single field that passed binding but failed
// a handler-level check.
func FieldInvalid(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": []FieldError{{Field: field, Message: msg}},
	})
}

// Details turns a binding error into per-field messages.
func Details(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "malformed request body"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "trimmed_email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return "must be a valid id"
	case "date":
		return "must be a date in YYYY-MM-DD format"
	case "clock":
		return "must be a time in HH:MM format"
	case "plan":
		return "must be one of: full, two_pay, three_pay, four_pay"
	}
	return "is invalid"
}

// Actor is the authenticated caller set by the auth middleware.
func Actor(c *gin.Context) users.Actor {
	return users.Actor{ID: c.GetUint("user_id"), Role: c.GetString("role")}
}
