package binder

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// urlValidator accepts an absolute http(s) URL or the empty string. Empty is
// allowed so that presence can be checked separately, with every missing field
// reported at once.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || IsHTTPLink(value)
}

// IsHTTPLink reports whether value is an absolute http or https URL.
func IsHTTPLink(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
