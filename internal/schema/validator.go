// Package schema validates inbound requests and telemetry before they reach the core.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"sense-adaptive-core/internal/models"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid request")

// Validator checks struct tags on request and event types.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the domain rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("interaction_type", func(fl validator.FieldLevel) bool {
		return models.InteractionType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("adaptation_key", func(fl validator.FieldLevel) bool {
		return models.AdaptationKey(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// Validate returns nil or an error wrapping ErrInvalid that names each failing field.
func (v *Validator) Validate(x any) error {
	err := v.v.Struct(x)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "interaction_type":
		return fmt.Sprintf("%s: unknown interaction type %q", field, fe.Value())
	case "adaptation_key":
		return fmt.Sprintf("%s: unknown adaptation %q", field, fe.Value())
	case "max", "min":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
