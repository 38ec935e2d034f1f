package vfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "already normalized", raw: "/App.jsx", want: "/App.jsx"},
		{name: "nested", raw: "/components/Button.jsx", want: "/components/Button.jsx"},
		{name: "alias prefix", raw: "@/components/Card.jsx", want: "/components/Card.jsx"},
		{name: "missing leading slash", raw: "App.jsx", want: "/App.jsx"},
		{name: "trailing slash", raw: "/components/", want: "/components"},
		{name: "double slashes", raw: "//components//Button.jsx", want: "/components/Button.jsx"},
		{name: "dot segments", raw: "/./components/./Button.jsx", want: "/components/Button.jsx"},
		{name: "dotdot inside root", raw: "/components/../App.jsx", want: "/App.jsx"},
		{name: "surrounding whitespace", raw: "  /App.jsx\n", want: "/App.jsx"},
		{name: "root", raw: "/", want: "/"},
		{name: "case preserved", raw: "/Components/button.JSX", want: "/Components/button.JSX"},
		{name: "empty", raw: "", wantErr: ErrEmptyPath},
		{name: "whitespace only", raw: " \t ", wantErr: ErrEmptyPath},
		{name: "escape", raw: "/../secret", wantErr: ErrPathEscape},
		{name: "deep escape", raw: "/a/../../etc/passwd", wantErr: ErrPathEscape},
		{name: "alias escape", raw: "@/../x", wantErr: ErrPathEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				var pathErr *PathError
				require.True(t, errors.As(err, &pathErr))
				assert.Equal(t, tt.raw, pathErr.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParentAndAncestors(t *testing.T) {
	assert.Equal(t, "/", Parent("/App.jsx"))
	assert.Equal(t, "/components", Parent("/components/Button.jsx"))
	assert.Equal(t, "/", Parent("/"))
	assert.Equal(t, []string{"/a/b", "/a"}, ancestors("/a/b/c.js"))
	assert.Empty(t, ancestors("/c.js"))
}
