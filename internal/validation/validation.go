// Package validation holds the field-level rules for marketplace input.
// Every check is pure and returns a specific *errorutil.DomainError so the
// caller can show the message as is.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

const (
	minPasswordLength = 6
	minEmailLength    = 3

	// User names must be strictly longer than 2 and strictly shorter than 20.
	userNameMinExclusive = 2
	userNameMaxExclusive = 20

	ticketNameMin = 1
	ticketNameMax = 60

	MinQuantity = 1
	MaxQuantity = 100
	MinPrice    = 10
	MaxPrice    = 100

	passwordSpecialChars = "!@#$%^&*()_-+=/"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9]+([._][a-z0-9]+)?@\w+\.[a-zA-Z]{2,3}$`)

// Email checks the address shape and minimum length.
func Email(email string) error {
	if len(email) < minEmailLength || !emailPattern.MatchString(email) {
		return apperrors.NewFieldError(apperrors.CodeEmailFormat, "email", "Email format is incorrect")
	}
	return nil
}

// Password requires an uppercase letter, a lowercase letter and a special
// character, and at least six characters overall.
func Password(password string) error {
	var upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case strings.ContainsRune(passwordSpecialChars, r):
			special = true
		}
	}
	if utf8.RuneCountInString(password) < minPasswordLength || !upper || !lower || !special {
		return apperrors.NewFieldError(apperrors.CodePasswordFormat, "password", "Password format is incorrect")
	}
	return nil
}

// UserName checks a display name: length, then characters, then spacing.
func UserName(name string) error {
	n := utf8.RuneCountInString(name)
	if n <= userNameMinExclusive || n >= userNameMaxExclusive {
		return apperrors.NewFieldError(apperrors.CodeNameLength, "name", "Name length formatting error")
	}
	return nameShape("name", name)
}

// TicketName checks a ticket name: length, then characters, then spacing.
func TicketName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < ticketNameMin {
		return apperrors.NewFieldError(apperrors.CodeNameLength, "name", "Ticket name is required")
	}
	if n > ticketNameMax {
		return apperrors.NewFieldError(apperrors.CodeNameLength, "name", "Ticket name is too long")
	}
	return nameShape("name", name)
}

func nameShape(field, name string) error {
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			return apperrors.NewFieldError(apperrors.CodeNameCharacters, field, "Name contains special characters")
		}
	}
	if strings.HasPrefix(name, " ") || strings.HasSuffix(name, " ") {
		return apperrors.NewFieldError(apperrors.CodeNameSpacing, field, "Invalid spaces found in word")
	}
	return nil
}

// Quantity accepts 1 through 100 inclusive.
func Quantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return apperrors.NewFieldError(apperrors.CodeQuantityRange, "quantity", "Invalid quantity of tickets")
	}
	return nil
}

// Price accepts 10 through 100 inclusive.
func Price(price int) error {
	if price < MinPrice || price > MaxPrice {
		return apperrors.NewFieldError(apperrors.CodePriceRange, "price", "Ticket price outside of valid range")
	}
	return nil
}

// Date checks an ISO 8601 basic date (YYYYMMDD) whose year is not before
// the year of now.
func Date(date string, now time.Time) error {
	invalid := apperrors.NewFieldError(apperrors.CodeDateFormat, "date", "Invalid ticket date")
	if len(date) != 8 {
		return invalid
	}
	for i := 0; i < len(date); i++ {
		if date[i] < '0' || date[i] > '9' {
			return invalid
		}
	}
	year, _ := strconv.Atoi(date[:4])
	month, _ := strconv.Atoi(date[4:6])
	day, _ := strconv.Atoi(date[6:])
	if year < now.Year() || month < 1 || month > 12 || day < 1 || day > 31 {
		return invalid
	}
	return nil
}
