package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vianajose7/faaxis/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Advisor@Example.COM", "advisor@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"double..dot@example.com", "double.dot@example.com"},
		{".leading.dot@example.com", "leading.dot@example.com"},
		{"not-an-email", "not-an-email"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizer.NormalizeEmail(tc.in), tc.in)
	}
}

func TestTrimString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello", sanitizer.TrimString("  hello \n"))
}
