// Package storage provides persistent data storage for the exoseeker service.
// It uses BoltDB as the underlying storage engine to keep the evaluation
// history of fit-all runs and the prediction bundles callers choose to persist.
//
// Fitted models themselves are never written here; they live only in the
// process that trained them.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/ml"

	"go.etcd.io/bbolt"
)

const (
	resultsBucket     = "results"     // Bucket name for fit-all evaluation snapshots
	predictionsBucket = "predictions" // Bucket name for persisted prediction bundles
)

// Store provides persistent storage using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// ResultsSnapshot is the evaluation record of one fit-all run.
type ResultsSnapshot struct {
	RunID    string           `json:"run_id"`
	FittedAt time.Time        `json:"fitted_at"`
	Results  []ml.ModelResult `json:"results"`
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, common.DatabaseFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(resultsBucket)); err != nil {
			return fmt.Errorf("create results bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// resultsKey orders snapshots by fit time; the run ID keeps keys unique.
func resultsKey(snap ResultsSnapshot) []byte {
	return []byte(fmt.Sprintf("%020d_%s", snap.FittedAt.UnixNano(), snap.RunID))
}

// StoreResults saves the evaluation snapshot of a fit-all run.
func (s *Store) StoreResults(snap ResultsSnapshot) error {
	if snap.RunID == "" {
		return fmt.Errorf("results snapshot has no run ID")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucket))

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		return b.Put(resultsKey(snap), data)
	})
}

// LatestResults returns the most recent snapshot, or nil when none is stored.
func (s *Store) LatestResults() (*ResultsSnapshot, error) {
	var snap *ResultsSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket([]byte(resultsBucket)).Cursor().Last()
		if v == nil {
			return nil
		}
		snap = &ResultsSnapshot{}
		if err := json.Unmarshal(v, snap); err != nil {
			return fmt.Errorf("unmarshal results: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ResultsHistory returns every stored snapshot, oldest first.
func (s *Store) ResultsHistory() ([]ResultsSnapshot, error) {
	var history []ResultsSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).ForEach(func(_, v []byte) error {
			var snap ResultsSnapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return nil // Skip malformed records
			}
			history = append(history, snap)
			return nil
		})
	})
	return history, err
}

// getRecordsInRange retrieves records from a bucket whose keys fall between
// prefix_start and prefix_end. It uses BoltDB cursors for efficient range
// scanning and applies unmarshalFunc to deserialize each record.
func (s *Store) getRecordsInRange(bucketName, prefix string, start, end time.Time, unmarshalFunc func([]byte) (interface{}, error)) ([]interface{}, error) {
	var records []interface{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		c := b.Cursor()

		keyPrefix := []byte(prefix + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", prefix, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", prefix, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && compareKeys(k, endKey) <= 0; k, v = c.Next() {
			if !hasPrefix(k, keyPrefix) {
				continue
			}

			record, err := unmarshalFunc(v)
			if err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}

		return nil
	})

	return records, err
}

func hasPrefix(data, prefix []byte) bool {
	return bytes.HasPrefix(data, prefix)
}

func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
