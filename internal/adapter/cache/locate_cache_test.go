package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/domain"
)

type countingLocator struct {
	calls int
	err   error
}

func (l *countingLocator) Locate(code string) ([]domain.SpecifierReference, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return []domain.SpecifierReference{{Start: 0, End: len(code), Value: code}}, nil
}

func TestCachedLocator(t *testing.T) {
	inner := &countingLocator{}
	c := NewLocateCache(10)
	l := NewCachedLocator(inner, c)

	first, err := l.Locate("a")
	require.NoError(t, err)
	first[0].Value = "mutated"

	second, err := l.Locate("a")
	require.NoError(t, err)
	assert.Equal(t, "a", second[0].Value, "cached refs are not shared with callers")
	assert.Equal(t, 1, inner.calls)

	_, err = l.Locate("b")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
}

func TestCachedLocator_ErrorsNotCached(t *testing.T) {
	inner := &countingLocator{err: errors.New("boom")}
	l := NewCachedLocator(inner, NewLocateCache(10))

	_, err := l.Locate("x")
	assert.Error(t, err)
	_, err = l.Locate("x")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestLocateCache_Eviction(t *testing.T) {
	c := NewLocateCache(2)
	c.Put("a", nil)
	c.Put("b", nil)

	// Touch a so b is the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", nil)
	assert.Equal(t, 2, c.Size())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Invalidate()
	assert.Equal(t, 0, c.Size())
}
