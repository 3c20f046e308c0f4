package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeBaseName(t *testing.T) {
	cases := []struct {
		in, base, ext string
	}{
		{"Midterm Notes.pdf", "Midterm_Notes", ".pdf"},
		{"../../etc/passwd", "passwd", ""},
		{`C:\Users\bob\lab #1.DOCX`, "lab__1", ".docx"},
		{"", "file", ""},
		{"notes.", "notes", ""},
		{".", "file", ""},
		{"résumé.png", "r_sum_", ".png"},
	}
	for _, tc := range cases {
		base, ext := SanitizeBaseName(tc.in)
		assert.Equal(t, tc.base, base, tc.in)
		assert.Equal(t, tc.ext, ext, tc.in)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = ParseID("0")
	assert.False(t, ok)
	_, ok = ParseID("abc")
	assert.False(t, ok)
}

func TestRenderMarkdownSanitises(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script> [x](https://example.com)"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
	assert.True(t, strings.Contains(out, `target="_blank"`))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "hi there", StripTags("<b>hi</b> there"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Why does my stack overflow?", Excerpt("# Why does my\n\nstack *overflow*?", 100))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
	assert.Equal(t, "Tom & Jerry", Excerpt("Tom & Jerry", 50))
}

func TestStringToIntDefault(t *testing.T) {
	assert.Equal(t, 2024, StringToIntDefault(" 2024 ", 1))
	assert.Equal(t, 7, StringToIntDefault("", 7))
	assert.Equal(t, 7, StringToIntDefault("twenty", 7))
}
