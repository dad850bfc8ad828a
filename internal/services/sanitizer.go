package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
)

const (
	minAge = 13
	maxAge = 120
)

var (
	phonePattern      = regexp.MustCompile(`^[\d\s()\-+]+$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	birthDateLayouts  = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"}
)

// profileInput holds the trimmed string form of every field a client can
// send. Empty strings mean "absent" and are skipped by omitempty.
type profileInput struct {
	DisplayName string `json:"displayName" validate:"omitempty,min=2,max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"omitempty,max=20,phone"`
	BirthDate   string `json:"birthDate" validate:"omitempty,isodate,agerange"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,max=500,url"`
	Bio         string `json:"bio" validate:"omitempty,max=1000"`
	City        string `json:"city" validate:"omitempty,max=100"`
	State       string `json:"state" validate:"omitempty,len=2"`
	PostalCode  string `json:"postalCode" validate:"omitempty,postalcode"`
	Street      string `json:"street" validate:"omitempty,max=255"`
	Number      string `json:"number" validate:"omitempty,max=20"`
	Complement  string `json:"complement" validate:"omitempty,max=100"`
}

func (in *profileInput) field(name string) *string {
	switch name {
	case models.FieldDisplayName:
		return &in.DisplayName
	case models.FieldEmail:
		return &in.Email
	case models.FieldPhone:
		return &in.Phone
	case models.FieldBirthDate:
		return &in.BirthDate
	case models.FieldPhotoURL:
		return &in.PhotoURL
	case models.FieldBio:
		return &in.Bio
	case models.FieldCity:
		return &in.City
	case models.FieldState:
		return &in.State
	case models.FieldPostalCode:
		return &in.PostalCode
	case models.FieldStreet:
		return &in.Street
	case models.FieldNumber:
		return &in.Number
	case models.FieldComplement:
		return &in.Complement
	}
	return nil
}

// FieldSanitizer turns a raw client map into a validated FieldSet.
type FieldSanitizer struct {
	validate *validator.Validate
	now      func() time.Time
	aliases  map[string][]string
}

// NewFieldSanitizer uses now for age checks; nil means time.Now.
func NewFieldSanitizer(now func() time.Time) *FieldSanitizer {
	if now == nil {
		now = time.Now
	}
	s := &FieldSanitizer{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
		aliases:  make(map[string][]string),
	}

	for alias, canonical := range models.LegacyFieldAliases {
		s.aliases[canonical] = append(s.aliases[canonical], alias)
	}

	s.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = s.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = s.validate.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(fl.Field().String())
	})
	_ = s.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := parseBirthDate(fl.Field().String())
		return ok
	})
	_ = s.validate.RegisterValidation("agerange", func(fl validator.FieldLevel) bool {
		t, ok := parseBirthDate(fl.Field().String())
		if !ok {
			return false
		}
		age := s.now().Year() - t.Year()
		return age >= minAge && age <= maxAge
	})

	return s
}

// Sanitize keeps allow-listed keys (or their legacy aliases) whose values are
// present and non-empty, normalizes them and validates the result. Every
// failing field is reported in a single validation error.
func (s *FieldSanitizer) Sanitize(raw map[string]any, allow []string) (models.FieldSet, error) {
	var (
		input     profileInput
		present   []string
		fieldErrs []apperror.FieldError
	)

	for _, name := range allow {
		target := input.field(name)
		if target == nil {
			continue
		}

		value, found := s.lookup(raw, name)
		if !found {
			continue
		}

		str, err := stringValue(value)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: name, Message: err.Error()})
			continue
		}
		if str == "" {
			continue
		}

		switch name {
		case models.FieldEmail:
			str = strings.ToLower(str)
		case models.FieldState:
			str = strings.ToUpper(str)
		}
		*target = str
		present = append(present, name)
	}

	if err := s.validate.Struct(input); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, apperror.Internal(err)
		}
		for _, fe := range verrs {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: fe.Field(), Message: messageFor(fe)})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, apperror.Validation(fieldErrs)
	}
	if len(present) == 0 {
		return nil, apperror.NoFieldsProvided()
	}

	out := make(models.FieldSet, len(present))
	for _, name := range present {
		value := *input.field(name)
		if name == models.FieldBirthDate {
			t, _ := parseBirthDate(value)
			out[name] = t
			continue
		}
		out[name] = value
	}
	return out, nil
}

// lookup prefers the canonical key; a legacy alias is only used when the
// canonical key carries nothing.
func (s *FieldSanitizer) lookup(raw map[string]any, name string) (any, bool) {
	if v, ok := raw[name]; ok && !isBlank(v) {
		return v, true
	}
	for _, alias := range s.aliases[name] {
		if v, ok := raw[alias]; ok && !isBlank(v) {
			return v, true
		}
	}
	return nil, false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func stringValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	}
	return "", fmt.Errorf("must be a string")
}

func parseBirthDate(s string) (time.Time, bool) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "phone":
		return "may only contain digits, spaces, parentheses, hyphens and plus signs"
	case "postalcode":
		return "must match NNNNN-NNN or NNNNNNNN"
	case "isodate":
		return "must be an ISO-8601 date"
	case "agerange":
		return fmt.Sprintf("age must be between %d and %d years", minAge, maxAge)
	}
	return "is invalid"
}
