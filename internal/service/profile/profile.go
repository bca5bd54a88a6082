package profile

import (
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/janisto/engage-forms/internal/platform/timeutil"
)

// User-facing messages for each validation failure.
const (
	MsgIncompleteOrInvalidDate = "Please fill all fields with valid info including a valid Date of Birth."
	MsgInvalidPhoneFormat      = "Phone number must be in format +[country code][number], e.g. +911234567890"
)

// Sentinel errors matched by ValidationError via errors.Is.
var (
	ErrIncompleteOrInvalidDate = errors.New("incomplete fields or invalid date of birth")
	ErrInvalidPhoneFormat      = errors.New("invalid phone format")
)

// Kind classifies a validation failure.
type Kind string

const (
	KindIncompleteOrInvalidDate Kind = "incomplete_or_invalid_date"
	KindInvalidPhoneFormat      Kind = "invalid_phone_format"
)

// ValidationError reports the first rule an Input broke.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches the sentinel error for the failure kind.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case KindIncompleteOrInvalidDate:
		return target == ErrIncompleteOrInvalidDate
	case KindInvalidPhoneFormat:
		return target == ErrInvalidPhoneFormat
	default:
		return false
	}
}

// Input holds the raw form values exactly as submitted.
type Input struct {
	Name        string `validate:"required"`
	Email       string `validate:"required"`
	Phone       string `validate:"required,phone"`
	DateOfBirth string
}

// Profile is a validated, immutable set of form values.
type Profile struct {
	name        string
	email       string
	phone       string
	dateOfBirth time.Time
}

func (p *Profile) Name() string  { return p.name }
func (p *Profile) Email() string { return p.email }
func (p *Profile) Phone() string { return p.phone }

// DateOfBirth is midnight UTC of the submitted date.
func (p *Profile) DateOfBirth() time.Time { return p.dateOfBirth }

// phonePattern is a leading '+' followed by 10 to 15 ASCII digits.
var phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// validate is safe for concurrent use once the custom tags are registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks in against the form rules. The first failing rule wins:
// a missing name, email or phone, or an unreadable date of birth, is reported
// before a malformed phone number.
func Validate(in Input) (*Profile, error) {
	dob, dateErr := timeutil.ParseDate(in.DateOfBirth)

	var incomplete, badPhone bool
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			if fe.Tag() == "phone" {
				badPhone = true
			} else {
				incomplete = true
			}
		}
	}

	switch {
	case incomplete || dateErr != nil:
		return nil, &ValidationError{Kind: KindIncompleteOrInvalidDate, Message: MsgIncompleteOrInvalidDate}
	case badPhone:
		return nil, &ValidationError{Kind: KindInvalidPhoneFormat, Message: MsgInvalidPhoneFormat}
	}

	return &Profile{
		name:        in.Name,
		email:       in.Email,
		phone:       in.Phone,
		dateOfBirth: dob,
	}, nil
}
