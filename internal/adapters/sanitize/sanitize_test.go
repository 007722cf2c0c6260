package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRichTextSanitize(t *testing.T) {
	r := NewRichText()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain text", "Cozy room", "Cozy room"},
		{"keeps formatting", "<p><strong>Big</strong> bed</p>", "<p><strong>Big</strong> bed</p>"},
		{"drops script", `<p>ok</p><script>alert(1)</script>`, "<p>ok</p>"},
		{"drops handlers", `<p onclick="steal()">hi</p>`, "<p>hi</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Sanitize(tt.in))
		})
	}
}

func TestRichTextLinksGetNoFollow(t *testing.T) {
	out := NewRichText().Sanitize(`<a href="https://example.com">site</a>`)
	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, `target="_blank"`)
}
