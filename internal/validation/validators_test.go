package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := Required("Title", 5)

	assert.Equal(t, "", v("Hello"))
	assert.Equal(t, "Title is required.", v("   "))
	assert.Equal(t, "Title cannot exceed 5 characters.", v("Hello!"))
	assert.Equal(t, "", v("ãéíõú"), "length is counted in runes")
}

func TestOptional(t *testing.T) {
	v := Optional("Location", 3)

	assert.Equal(t, "", v(""))
	assert.Equal(t, "", v("abc"))
	assert.NotEmpty(t, v("abcd"))
}

func TestHTTPURL(t *testing.T) {
	v := HTTPURL("Link")

	for _, ok := range []string{"https://acme.example/jobs/1", "http://acme.example", ""} {
		assert.Equal(t, "", v(ok), ok)
	}
	for _, bad := range []string{"acme.example/jobs", "ftp://acme.example", "https://", "://nope", "javascript:alert(1)"} {
		assert.Equal(t, "Link must be a valid http(s) URL.", v(bad), bad)
	}
}

func TestEmail(t *testing.T) {
	v := Email("Email")

	for _, ok := range []string{"a@acme.example", "first.last+jobs@sub.acme.pt", ""} {
		assert.Equal(t, "", v(ok), ok)
	}
	for _, bad := range []string{"not-an-email", "a@", "@acme.example", "a@localhost", "Jane <a@acme.example>", "a@acme.example, b@acme.example"} {
		assert.Equal(t, "Email must be a valid email address.", v(bad), bad)
	}
}

func TestFieldValidator_FirstErrorPerField(t *testing.T) {
	fv := New().
		Validate("title", "", Required("Title", 10)).
		Validate("link", "", Required("Link", 10), HTTPURL("Link")).
		Validate("email", strings.Repeat("a", 3)+"@acme.example", Required("Email", 100), Email("Email")).
		Validate("company", "Acme", Required("Company", 10))

	assert.False(t, fv.Valid())
	assert.Equal(t, map[string]string{
		"title": "Title is required.",
		"link":  "Link is required.",
	}, fv.Errors())
}
