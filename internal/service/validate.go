package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/microblog/internal/domain"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."

	maxUsernameLength = 150
	maxTitleLength    = 200
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func validateUsername(v *domain.ValidationError, username string) {
	switch {
	case username == "":
		v.Add("username", msgRequired)
	case utf8.RuneCountInString(username) > maxUsernameLength:
		v.Add("username", maxLengthMessage(maxUsernameLength))
	case !usernamePattern.MatchString(username):
		v.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

// validateEmail accepts an empty address; anything else must be a bare
// address such as "a@x.com".
func validateEmail(v *domain.ValidationError, email string) {
	if email == "" {
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "Enter a valid email address.")
	}
}

// validateText checks a text field. A nil value is missing, which is an
// error unless partial is set. maxLen of zero means unlimited.
func validateText(v *domain.ValidationError, field string, value *string, partial bool, maxLen int) {
	if value == nil {
		if !partial {
			v.Add(field, msgRequired)
		}
		return
	}
	if strings.TrimSpace(*value) == "" {
		v.Add(field, msgBlank)
		return
	}
	if maxLen > 0 && utf8.RuneCountInString(*value) > maxLen {
		v.Add(field, maxLengthMessage(maxLen))
	}
}

func maxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}
