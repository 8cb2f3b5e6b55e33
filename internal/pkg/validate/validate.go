package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

var lnUsernameRe = regexp.MustCompile(`^[a-z0-9_.-]+$`)

func init() {
	_ = v.RegisterValidation("ln_username", func(fl validator.FieldLevel) bool {
		return IsLnUsername(fl.Field().String())
	})
}

// IsLnUsername reports whether value is a valid lightning address local part.
// Matching is case-insensitive; addresses are lowercased before storage.
func IsLnUsername(value string) bool {
	return lnUsernameRe.MatchString(strings.ToLower(value))
}

// IsLightningAddress reports whether value is a well-formed
// <username>@<domain> lightning address.
func IsLightningAddress(value string) bool {
	username, domain, ok := strings.Cut(value, "@")
	if !ok || username == "" || domain == "" {
		return false
	}
	if strings.Contains(domain, "@") {
		return false
	}
	return lnUsernameRe.MatchString(username)
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
