package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"How to Train Gophers", "how-to-train-gophers"},
		{"Hello, World!", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"UPPER case", "upper-case"},
		{"100% Go", "100-go"},
		{"!!!", ""},
		{"déjà vu", "déjà-vu"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestUniquifySlug(t *testing.T) {
	taken := map[string]bool{
		"busy":   true,
		"busy-1": true,
		"busy-2": true,
	}
	exists := func(_ context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}
	ctx := context.Background()

	slug, err := uniquifySlug(ctx, "free", exists)
	require.NoError(t, err)
	assert.Equal(t, "free", slug)

	slug, err = uniquifySlug(ctx, "busy", exists)
	require.NoError(t, err)
	assert.Equal(t, "busy-3", slug)

	// an empty base falls back to a generic slug
	slug, err = uniquifySlug(ctx, "", exists)
	require.NoError(t, err)
	assert.Equal(t, "article", slug)
}
