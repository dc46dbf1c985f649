package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no script tag",
			input: "Hello, World!",
			want:  "Hello, World!",
		},
		{
			name:  "script tag",
			input: "<script>alert('Hello, World!');</script>",
			want:  "",
		},
		{
			name:  "script tag around text",
			input: "before <SCRIPT SRC=\"evil.js\"></SCRIPT>after",
			want:  "before after",
		},
		{
			name:  "script spanning lines",
			input: "a<script>\nalert(1)\n</script>b",
			want:  "ab",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := sanitizeText(tc.input)
			assert.Equal(t, tc.want, output)
		})
	}
}
