package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{name: "simple file", rel: "root.mon", want: filepath.Join(root, "root.mon")},
		{name: "nested file", rel: "pkg/a.mon", want: filepath.Join(root, "pkg", "a.mon")},
		{name: "inner dot-dot stays inside", rel: "pkg/../b.mon", want: filepath.Join(root, "b.mon")},
		{name: "backslashes", rel: `pkg\a.mon`, want: filepath.Join(root, "pkg", "a.mon")},
		{name: "escapes root", rel: "../evil.mon", wantErr: true},
		{name: "escapes root deep", rel: "pkg/../../evil.mon", wantErr: true},
		{name: "absolute", rel: "/etc/passwd", wantErr: true},
		{name: "empty", rel: "", wantErr: true},
		{name: "dot", rel: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(root, tt.rel)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrPathTraversal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRelPath(t *testing.T) {
	assert.Equal(t, "pkg/a.mon", NormalizeRelPath("/pkg/a.mon"))
	assert.Equal(t, "pkg/a.mon", NormalizeRelPath(`pkg\a.mon`))
	assert.Equal(t, "pkg/a.mon", NormalizeRelPath("pkg/./a.mon"))
	assert.Equal(t, "", NormalizeRelPath("/"))
	assert.Equal(t, "", NormalizeRelPath("."))
}

func TestEnsureFileDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureFileDir(filepath.Join(root, "a", "b", "c.txt")))
	assert.DirExists(t, filepath.Join(root, "a", "b"))
}
