package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tasksync/tasksync-api/internal/domain"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// validate is shared by every handler. Field names in errors use the JSON
// tag so messages match the request body.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// password enforces the account password policy.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return domain.ValidatePasswordStrength(fl.Field().String()) == nil
	})
	// emailaddr uses the same pattern as stored accounts.
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return domain.IsEmail(strings.TrimSpace(fl.Field().String()))
	})
	// identifier accepts either an email address or a username.
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if domain.IsEmail(strings.ToLower(s)) {
			return true
		}
		return domain.ValidateUsername(s) == nil
	})
	return v
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return err
	}
	return nil
}

// ValidateRequest validates v with its own Validate method when it has one,
// otherwise with struct tags.
func ValidateRequest(v interface{}) error {
	if validatable, ok := v.(interface{ Validate() error }); ok {
		return validatable.Validate()
	}
	return validate.Struct(v)
}

// ValidationMessage turns a validation error into "<field> <problem>" text
// safe to return to clients.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		var domainErr *domain.ValidationError
		if errors.As(err, &domainErr) {
			return domainErr.Error()
		}
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("%s %s", fe.Field(), tagMessage(fe))
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "emailaddr", "email":
		return "must be a valid email"
	case "password":
		return "must be at least 8 characters and include upper and lower case letters, a digit and one of @$!%*?&"
	case "identifier":
		return "must be an email or a username of 3 to 30 characters"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid", "uuid4":
		return "has invalid format"
	default:
		return "is invalid"
	}
}

