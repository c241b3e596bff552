// Package inputval validates request payload structs with
// go-playground/validator, plus the handful of domain formats (usernames,
// full names, time slots) that struct tags can't express on their own.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slotRe     = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// Username/full-name/password bounds shared by the API and the provisioning CLI.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	PasswordMinLen = 8
	PasswordMaxLen = 128
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report the struct's `label` tag (falling back to the field name) so
	// validation messages read like the form labels users see.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return IsValidFullName(fl.Field().String())
	})
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return IsValidSlot(fl.Field().String())
	})
	return v
}

// Struct validates a tagged payload struct. The returned error message names
// the first failing field by its label.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s: failed %q validation", fe.Field(), fe.Tag())
	}
	return err
}

// IsValidUsername reports whether s is 3-50 chars of [a-zA-Z0-9_-].
func IsValidUsername(s string) bool {
	if len(s) < UsernameMinLen || len(s) > UsernameMaxLen {
		return false
	}
	return usernameRe.MatchString(s)
}

// IsValidFullName reports whether s is a plausible person name: non-empty,
// at most 100 runes, containing only letters (any script, Hebrew included),
// spaces, apostrophes, and hyphens.
func IsValidFullName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	runes := []rune(s)
	if len(runes) > 100 {
		return false
	}
	for _, r := range runes {
		if unicode.IsLetter(r) || r == ' ' || r == '\'' || r == '-' {
			continue
		}
		return false
	}
	return true
}

// IsValidPassword reports whether the password length is within 8-128 bytes.
func IsValidPassword(s string) bool {
	return len(s) >= PasswordMinLen && len(s) <= PasswordMaxLen
}

// IsValidSlot reports whether s is a HH:MM time-slot string.
func IsValidSlot(s string) bool {
	return slotRe.MatchString(s)
}
