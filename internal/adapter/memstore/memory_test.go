package memstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/domain"
	"relocate/internal/port"
)

func record(id, moved string) domain.RunRecord {
	r := domain.RunRecord{ID: id}
	if moved != "" {
		r.Result.Renamed = []domain.Rename{{From: "node_modules/" + moved, To: "external/" + moved}}
	}
	return r
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.PutRun(record("20240101-000001", "a.js")))
	require.NoError(t, s.PutRun(record("20240101-000003", "b.js")))
	require.NoError(t, s.PutRun(record("20240101-000002", "")))

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "20240101-000003", runs[0].ID)
	assert.Equal(t, "20240101-000001", runs[2].ID)

	runs, _ = s.ListRuns(1)
	assert.Len(t, runs, 1)

	id, ok, err := s.FindMove("external/a.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "20240101-000001", id)

	require.NoError(t, s.Trim(2))
	_, err = s.GetRun("20240101-000001")
	assert.True(t, errors.Is(err, port.ErrRunNotFound))
	_, ok, _ = s.FindMove("external/a.js")
	assert.False(t, ok)

	_, err = s.GetRun("20240101-000003")
	assert.NoError(t, err)
}
