package papersources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/article-explorer/internal/domain"
)

type mockSource struct {
	name       string
	configured bool
}

func (m *mockSource) SearchRaw(_ context.Context, _ SearchParams) (*RawResult, error) {
	return &RawResult{Body: []byte(`{"results":[]}`), Source: m.name}, nil
}

func (m *mockSource) Name() string       { return m.name }
func (m *mockSource) IsConfigured() bool { return m.configured }

func TestRegistry(t *testing.T) {
	t.Run("register and get is case-insensitive", func(t *testing.T) {
		r := NewRegistry()
		src := &mockSource{name: "CORE"}
		r.Register(src)

		got, err := r.Get(" core ")
		require.NoError(t, err)
		assert.Same(t, src, got)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewRegistry().Get("scopus")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("re-register replaces", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&mockSource{name: "core"})
		replacement := &mockSource{name: "core", configured: true}
		r.Register(replacement)

		got, err := r.Get("core")
		require.NoError(t, err)
		assert.True(t, got.IsConfigured())
	})

	t.Run("names sorted", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&mockSource{name: "zeta"})
		r.Register(&mockSource{name: "alpha"})
		assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
	})
}

func TestSearchParams_EffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, SearchParams{}.EffectiveLimit())
	assert.Equal(t, DefaultLimit, SearchParams{Limit: -1}.EffectiveLimit())
	assert.Equal(t, 25, SearchParams{Limit: 25}.EffectiveLimit())
}
