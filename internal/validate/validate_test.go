package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestErrors(t *testing.T) {
	testCases := []struct {
		name      string
		check     func(e Errors)
		badFields []string
	}{
		{"valid cyrillic name", func(e Errors) { e.Name("surname", "Иванов") }, nil},
		{"hyphenated name", func(e Errors) { e.Name("surname", "Римский-Корсаков") }, nil},
		{"blank name", func(e Errors) { e.Name("name", "  ") }, []string{"name"}},
		{"short name", func(e Errors) { e.Name("name", "И") }, []string{"name"}},
		{"name with digits", func(e Errors) { e.Name("name", "Иван2") }, []string{"name"}},
		{"missing patronymic is fine", func(e Errors) { e.OptionalName("patronymic", nil) }, nil},
		{"bad patronymic", func(e Errors) { e.OptionalName("patronymic", strPtr("1")) }, []string{"patronymic"}},
		{"formatted phone", func(e Errors) { e.Phone("phone", "+7 (900) 123-45-67") }, nil},
		{"short phone", func(e Errors) { e.Phone("phone", "12345") }, []string{"phone"}},
		{"empty email is optional", func(e Errors) { e.Email("email", strPtr("")) }, nil},
		{"bad email", func(e Errors) { e.Email("email", strPtr("ivan@")) }, []string{"email"}},
		{"good email", func(e Errors) { e.Email("email", strPtr("ivan@mail.ru")) }, nil},
		{"gender", func(e Errors) { e.Gender("gender", model.GenderFemale) }, nil},
		{"unknown gender", func(e Errors) { e.Gender("gender", "X") }, []string{"gender"}},
		{"short address", func(e Errors) { e.Address("address", "ул.") }, []string{"address"}},
		{"floors too many", func(e Errors) { e.FloorsCount("floors_count", 101) }, []string{"floors_count"}},
		{"floor above building", func(e Errors) { e.Floor("floor", 6, 5) }, []string{"floor"}},
		{"floor without bound", func(e Errors) { e.Floor("floor", 6, 0) }, nil},
		{"zero capacity", func(e Errors) { e.Capacity("capacity", 0) }, []string{"capacity"}},
		{"capacity too large", func(e Errors) { e.Capacity("capacity", 21) }, []string{"capacity"}},
		{"negative area", func(e Errors) { e.Area("area", floatPtr(-1)) }, []string{"area"}},
		{"nil area", func(e Errors) { e.Area("area", nil) }, nil},
		{"date", func(e Errors) { e.Date("date", "2024-09-01") }, nil},
		{"bad date", func(e Errors) { e.Date("date", "01.09.2024") }, []string{"date"}},
		{"impossible date", func(e Errors) { e.Date("date", "2024-02-30") }, []string{"date"}},
		{"id", func(e Errors) { e.ID("room_id", 0) }, []string{"room_id"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			tc.check(e)
			err := e.Err()
			if len(tc.badFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tc.badFields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestErrorsKeepsFirstMessagePerField(t *testing.T) {
	e := New()
	e.Name("name", "")
	e.Name("name", "1")
	require.Len(t, e, 1)
	assert.Equal(t, "обязательно к заполнению", e["name"])
}

func TestErrorsUpperBounds(t *testing.T) {
	long := func(n int) string { return strings.Repeat("я", n) }

	testCases := []struct {
		name  string
		check func(e Errors)
		ok    bool
	}{
		{"name at limit", func(e Errors) { e.Name("surname", long(MaxNameLen)) }, true},
		{"name over limit", func(e Errors) { e.Name("surname", long(MaxNameLen+1)) }, false},
		{"patronymic over limit", func(e Errors) { e.OptionalName("patronymic", strPtr(long(MaxNameLen+1))) }, false},
		{"phone at limit", func(e Errors) { e.Phone("phone", strings.Repeat("1", MaxPhoneLen)) }, true},
		{"phone over limit", func(e Errors) { e.Phone("phone", "+7 " + strings.Repeat("9", MaxPhoneLen)) }, false},
		{"email over limit", func(e Errors) { e.Email("email", strPtr(strings.Repeat("a", MaxEmailLen)+"@mail.ru")) }, false},
		{"address at limit", func(e Errors) { e.Address("address", long(MaxAddressLen)) }, true},
		{"address over limit", func(e Errors) { e.Address("address", long(MaxAddressLen+1)) }, false},
		{"group over limit", func(e Errors) { e.Required("group", long(MaxGroupLen+1), MaxGroupLen) }, false},
		{"number at limit", func(e Errors) { e.Required("number", long(MaxNumberLen), MaxNumberLen) }, true},
		{"number over limit", func(e Errors) { e.Required("number", long(MaxNumberLen+1), MaxNumberLen) }, false},
		{"limit counts characters not bytes", func(e Errors) { e.MaxLen("number", long(MaxNumberLen), MaxNumberLen) }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			tc.check(e)
			if tc.ok {
				assert.NoError(t, e.Err())
				return
			}
			assert.Len(t, e, 1)
			assert.Error(t, e.Err())
		})
	}
}
