package repourl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativePath(t *testing.T) {
	const base = "https://api.github.com/repos/o/r/contents/blocks"

	tests := []struct {
		name string
		file string
		base string
		want string
	}{
		{name: "direct child", file: base + "/Sum.mon", base: base, want: "Sum.mon"},
		{name: "nested child", file: base + "/pkg/a.mon", base: base, want: "pkg/a.mon"},
		{name: "same url", file: base, base: base, want: ""},
		{name: "trailing slash on base", file: base + "/Sum.mon", base: base + "/", want: "Sum.mon"},
		{name: "trailing slash on file", file: base + "/pkg/", base: base, want: "pkg"},
		{name: "unrelated falls back to last segment", file: "https://raw.example.com/x/y/z.mon", base: base, want: "z.mon"},
		{name: "doubled slash after base", file: base + "//Sum.mon", base: base, want: "Sum.mon"},
		{name: "sibling with shared prefix", file: base + "2/other.mon", base: base, want: "other.mon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativePath(tt.file, tt.base))
		})
	}
}

func TestRelativePath_Laws(t *testing.T) {
	bases := []string{"https://h/a", "https://h/a/b/", "https://h"}
	paths := []string{"x", "x/y", "x/y/z.mon"}

	for _, b := range bases {
		assert.Equal(t, "", RelativePath(b, b))
		for _, p := range paths {
			trimmed := b
			for len(trimmed) > 0 && trimmed[len(trimmed)-1] == '/' {
				trimmed = trimmed[:len(trimmed)-1]
			}
			assert.Equal(t, p, RelativePath(trimmed+"/"+p, b))
			assert.True(t, IsBelow(trimmed+"/"+p, b))
		}
	}
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://h/a", StripQuery("https://h/a?ref=main"))
	assert.Equal(t, "https://h/a", StripQuery("https://h/a#frag"))
	assert.Equal(t, "https://h/a", StripQuery("https://h/a"))
}
