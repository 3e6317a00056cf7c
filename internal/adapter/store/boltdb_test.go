package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"relocate/internal/domain"
	"relocate/internal/port"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func run(i int, moves ...string) domain.RunRecord {
	r := domain.RunRecord{
		ID:        fmt.Sprintf("run-%03d", i),
		Root:      "/dist",
		StartedAt: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		Duration:  time.Millisecond,
	}
	for _, m := range moves {
		r.Result.Renamed = append(r.Result.Renamed, domain.Rename{From: "node_modules/" + m, To: "external/" + m})
	}
	return r
}

func TestBoltStore_Runs(t *testing.T) {
	s := openStore(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.PutRun(run(i, fmt.Sprintf("lib%d.js", i))))
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-003", runs[0].ID, "newest first")
	assert.Equal(t, "run-001", runs[2].ID)

	runs, err = s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	got, err := s.GetRun("run-002")
	require.NoError(t, err)
	assert.Equal(t, "external/lib2.js", got.Result.Renamed[0].To)
	assert.True(t, got.StartedAt.Equal(run(2).StartedAt))

	_, err = s.GetRun("missing")
	assert.True(t, errors.Is(err, port.ErrRunNotFound))
}

func TestBoltStore_FindMove(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.PutRun(run(1, "a.js")))
	require.NoError(t, s.PutRun(run(2, "a.js", "b.js")))

	id, ok, err := s.FindMove("external/a.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "run-002", id)

	_, ok, err = s.FindMove("external/zzz.js")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStore_Trim(t *testing.T) {
	s := openStore(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.PutRun(run(i, fmt.Sprintf("lib%d.js", i))))
	}

	require.NoError(t, s.Trim(2))

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-005", runs[0].ID)
	assert.Equal(t, "run-004", runs[1].ID)

	_, ok, err := s.FindMove("external/lib1.js")
	require.NoError(t, err)
	assert.False(t, ok, "trimmed runs drop their moves")
	_, ok, _ = s.FindMove("external/lib5.js")
	assert.True(t, ok)
}

func TestBoltStore_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	// Reopening an up-to-date ledger keeps its data.
	require.NoError(t, s.PutRun(run(1, "a.js")))
	require.NoError(t, s.Close())
	s2, err := NewBoltStore(path)
	require.NoError(t, err)
	runs, err := s2.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, s2.Clear())
	runs, err = s2.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	require.NoError(t, s2.Close())
}

func TestBoltStore_MigrateFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	// Build a v1 ledger by hand: runs only, no move index.
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keySchemaVersion, []byte("1")); err != nil {
			return err
		}
		runs, err := tx.CreateBucket(bucketRuns)
		if err != nil {
			return err
		}
		return runs.Put([]byte("run-001"), []byte(`{"id":"run-001","result":{"renamed":[{"from":"node_modules/a.js","to":"external/a.js"}]}}`))
	}))
	require.NoError(t, db.Close())

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	id, ok, err := s.FindMove("external/a.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "run-001", id)
}

func TestBoltStore_NewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(keySchemaVersion, []byte("99"))
	}))
	require.NoError(t, db.Close())

	_, err = NewBoltStore(path)
	assert.Error(t, err)
}
