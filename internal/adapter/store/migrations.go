package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version; 0 for a fresh database.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 1
		}
		return nil
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(tx *bbolt.Tx, version int) error {
	data, err := json.Marshal(version)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
}

// Migrate brings the database up to CurrentSchemaVersion. A database
// written by a newer version is rejected.
func (s *BoltStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("ledger created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}
	return nil
}

// runMigration runs a specific version migration in its own transaction.
func (s *BoltStore) runMigration(from, to int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		switch {
		case from == 0 && to == 1:
			if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
				return err
			}
		case from == 1 && to == 2:
			// v2 indexes destination paths; backfill from existing runs.
			if err := backfillMoves(tx); err != nil {
				return err
			}
		}
		return s.setSchemaVersion(tx, to)
	})
}

func backfillMoves(tx *bbolt.Tx) error {
	moves, err := tx.CreateBucketIfNotExists(bucketMoves)
	if err != nil {
		return err
	}

	// Ascending order leaves the newest run owning each path.
	return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
		var run struct {
			Result struct {
				Renamed []struct {
					To string `json:"to"`
				} `json:"renamed"`
			} `json:"result"`
		}
		if err := json.Unmarshal(v, &run); err != nil {
			return fmt.Errorf("failed to decode run %s: %w", k, err)
		}
		for _, r := range run.Result.Renamed {
			if err := moves.Put([]byte(r.To), k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes all runs, keeping the schema version.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketMoves} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
