package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

func TestEmail(t *testing.T) {
	valid := []string{"a@b.com", "test_frontend@test.com", "john.doe@mail.ca", "ab12@x.org"}
	for _, email := range valid {
		assert.NoError(t, Email(email), email)
	}

	invalid := []string{"", "a@", "@b.com", "Invalid Email", "a..b@c.com", "a@b.comma", "a@b.c", "a_@b.com"}
	for _, email := range invalid {
		err := Email(email)
		assert.True(t, errors.Is(err, apperrors.ErrEmailFormat), email)
	}
}

func TestPasswordRequiresAllClasses(t *testing.T) {
	assert.NoError(t, Password("Ab1!ab"))
	assert.NoError(t, Password("Test_frontend@"))

	cases := map[string]string{
		"too short":  "Ab!a",
		"no upper":   "abcdef!",
		"no lower":   "ABCDEF!",
		"no special": "Abcdefg1",
		"empty":      "",
	}
	for name, pw := range cases {
		err := Password(pw)
		assert.True(t, errors.Is(err, apperrors.ErrPasswordFormat), name)
	}
}

func TestUserNameOrder(t *testing.T) {
	assert.NoError(t, UserName("Alice"))
	assert.NoError(t, UserName("test0"))

	// length is checked before characters and spacing
	assert.True(t, errors.Is(UserName("a!"), apperrors.ErrNameLength))
	assert.True(t, errors.Is(UserName(strings.Repeat("a", 20)), apperrors.ErrNameLength))
	assert.True(t, errors.Is(UserName("al!ce"), apperrors.ErrNameCharacters))
	// characters are checked before spacing
	assert.True(t, errors.Is(UserName(" al!ce"), apperrors.ErrNameCharacters))
	assert.True(t, errors.Is(UserName(" alice"), apperrors.ErrNameSpacing))
	assert.True(t, errors.Is(UserName("alice "), apperrors.ErrNameSpacing))
}

func TestTicketName(t *testing.T) {
	assert.NoError(t, TicketName("t1"))
	assert.NoError(t, TicketName("Test name"))
	assert.NoError(t, TicketName(strings.Repeat("x", 60)))

	assert.True(t, errors.Is(TicketName(""), apperrors.ErrNameLength))
	assert.True(t, errors.Is(TicketName(strings.Repeat("x", 61)), apperrors.ErrNameLength))
	assert.True(t, errors.Is(TicketName("I_valid"), apperrors.ErrNameCharacters))
	assert.True(t, errors.Is(TicketName("Invalid "), apperrors.ErrNameSpacing))
}

func TestQuantityAndPriceBounds(t *testing.T) {
	for _, q := range []int{1, 50, 100} {
		assert.NoError(t, Quantity(q))
	}
	for _, q := range []int{-1, 0, 101} {
		assert.True(t, errors.Is(Quantity(q), apperrors.ErrQuantityRange))
	}
	for _, p := range []int{10, 55, 100} {
		assert.NoError(t, Price(p))
	}
	for _, p := range []int{9, 101, 0} {
		assert.True(t, errors.Is(Price(p), apperrors.ErrPriceRange))
	}
}

func TestDate(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, Date("20991231", now))
	assert.NoError(t, Date("20260101", now))

	for _, d := range []string{"", "2099123", "209912310", "2099-1-1", "20251231", "20990031", "20991331", "20990100", "20990132", "abcdefgh"} {
		assert.True(t, errors.Is(Date(d, now), apperrors.ErrDateFormat), d)
	}
}

func TestErrorsCarryStableMessages(t *testing.T) {
	err := Quantity(0)
	var domainErr *apperrors.DomainError
	if assert.True(t, errors.As(err, &domainErr)) {
		assert.Equal(t, "Invalid quantity of tickets", domainErr.Message)
		assert.Equal(t, 400, domainErr.HTTPStatus)
		assert.Equal(t, "quantity", domainErr.Details["field"])
	}
}
