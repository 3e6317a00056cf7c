package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"relocate/internal/domain"
	"relocate/internal/port"
)

var (
	bucketRuns  = []byte("runs")
	bucketMoves = []byte("moves")
	bucketMeta  = []byte("meta")
)

// BoltStore is the on-disk run ledger. Run IDs sort chronologically, so
// the runs bucket is walked backwards for newest-first listings.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) PutRun(run domain.RunRecord) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put([]byte(run.ID), data); err != nil {
			return err
		}
		moves := tx.Bucket(bucketMoves)
		for _, r := range run.Result.Renamed {
			if err := moves.Put([]byte(r.To), []byte(run.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetRun(id string) (domain.RunRecord, error) {
	var run domain.RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrRunNotFound, id)
		}
		return json.Unmarshal(data, &run)
	})
	return run, err
}

func (s *BoltStore) ListRuns(limit int) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run domain.RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("failed to decode run %s: %w", k, err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

func (s *BoltStore) FindMove(path string) (string, bool, error) {
	var id string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMoves).Get([]byte(path)); v != nil {
			id = string(v)
		}
		return nil
	})
	return id, id != "", err
}

func (s *BoltStore) Trim(keep int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		var stale [][]byte
		n := 0
		c := runs.Cursor()
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			n++
			if n > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		if len(stale) == 0 {
			return nil
		}

		dropped := make(map[string]bool, len(stale))
		for _, k := range stale {
			dropped[string(k)] = true
			if err := runs.Delete(k); err != nil {
				return err
			}
		}

		moves := tx.Bucket(bucketMoves)
		var orphaned [][]byte
		err := moves.ForEach(func(k, v []byte) error {
			if dropped[string(v)] {
				orphaned = append(orphaned, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range orphaned {
			if err := moves.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
var _ port.Ledger = (*BoltStore)(nil)
