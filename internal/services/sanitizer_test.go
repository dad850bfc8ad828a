package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
)

func fixedSanitizer() *FieldSanitizer {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewFieldSanitizer(func() time.Time { return now })
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestSanitize_DropsKeysOutsideAllowList(t *testing.T) {
	s := fixedSanitizer()

	out, err := s.Sanitize(map[string]any{
		"ownerId":     "someone-else",
		"accountType": "clinic",
		"email":       "evil@example.com",
		"createdAt":   "2000-01-01",
		"nome":        "Ana",
	}, models.EditableFields)

	require.NoError(t, err)
	assert.Equal(t, models.FieldSet{models.FieldDisplayName: "Ana"}, out)
}

func TestSanitize_CanonicalNameWinsOverAlias(t *testing.T) {
	s := fixedSanitizer()

	out, err := s.Sanitize(map[string]any{
		"displayName": "Bia",
		"nome":        "Ana",
		"cidade":      "Recife",
	}, models.EditableFields)

	require.NoError(t, err)
	assert.Equal(t, "Bia", out[models.FieldDisplayName])
	assert.Equal(t, "Recife", out[models.FieldCity])
}

func TestSanitize_Normalizes(t *testing.T) {
	s := fixedSanitizer()

	out, err := s.Sanitize(map[string]any{
		"displayName": "  Ana Souza  ",
		"state":       "sp",
		"birthDate":   "1990-05-17",
		"number":      float64(42),
		"postalCode":  "01310-100",
		"phone":       "+55 (11) 91234-5678",
		"bio":         "",
		"city":        nil,
	}, models.EditableFields)

	require.NoError(t, err)
	assert.Equal(t, models.FieldSet{
		models.FieldDisplayName: "Ana Souza",
		models.FieldState:       "SP",
		models.FieldBirthDate:   time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		models.FieldNumber:      "42",
		models.FieldPostalCode:  "01310-100",
		models.FieldPhone:       "+55 (11) 91234-5678",
	}, out)
}

func TestSanitize_EmailLowerCased(t *testing.T) {
	s := fixedSanitizer()

	out, err := s.Sanitize(map[string]any{"email": " Ana@Example.COM "}, []string{models.FieldEmail})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", out[models.FieldEmail])
}

func TestSanitize_AgeBoundaries(t *testing.T) {
	s := fixedSanitizer()

	cases := []struct {
		birthDate string
		ok        bool
	}{
		{"2013-12-31", true},  // 13
		{"2014-01-01", false}, // 12
		{"1906-01-01", true},  // 120
		{"1905-12-31", false}, // 121
	}
	for _, tc := range cases {
		t.Run(tc.birthDate, func(t *testing.T) {
			_, err := s.Sanitize(map[string]any{"birthDate": tc.birthDate}, models.EditableFields)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{models.FieldBirthDate}, fieldNames(t, err))
		})
	}
}

func TestSanitize_ReportsEveryFailingField(t *testing.T) {
	s := fixedSanitizer()

	_, err := s.Sanitize(map[string]any{
		"displayName": "A",
		"phone":       "call me",
		"state":       "SPX",
		"postalCode":  "123",
		"photoUrl":    "not a url",
		"birthDate":   "yesterday",
		"bio":         true,
		"city":        "Recife",
	}, models.EditableFields)

	assert.ElementsMatch(t, []string{
		models.FieldDisplayName,
		models.FieldPhone,
		models.FieldState,
		models.FieldPostalCode,
		models.FieldPhotoURL,
		models.FieldBirthDate,
		models.FieldBio,
	}, fieldNames(t, err))
}

func TestSanitize_NoFieldsProvided(t *testing.T) {
	s := fixedSanitizer()

	for name, raw := range map[string]map[string]any{
		"empty map":       {},
		"blank values":    {"bio": "   ", "city": nil},
		"only disallowed": {"ownerId": "x", "accountType": "clinic"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Sanitize(raw, models.EditableFields)
			assert.True(t, apperror.IsKind(err, apperror.KindNoFieldsProvided), "got %v", err)
		})
	}
}

func TestSanitize_LengthLimits(t *testing.T) {
	s := fixedSanitizer()

	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'a'
	}
	_, err := s.Sanitize(map[string]any{"bio": string(long), "complement": string(long[:101])}, models.EditableFields)
	assert.ElementsMatch(t, []string{models.FieldBio, models.FieldComplement}, fieldNames(t, err))

	out, err := s.Sanitize(map[string]any{"bio": string(long[:1000])}, models.EditableFields)
	require.NoError(t, err)
	assert.Len(t, out[models.FieldBio], 1000)
}
