package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"exoseeker/internal/ml"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// PredictionRecord is a persisted prediction bundle.
type PredictionRecord struct {
	ID        string              `json:"id"`
	Mission   string              `json:"mission"`
	ObjectID  string              `json:"object_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Bundle    ml.PredictionBundle `json:"bundle"`
}

var _ ml.PredictionRecorder = (*Store)(nil)

// StorePrediction stores a bundle under "mission_timestamp" so predictions of a
// mission can be scanned by time range.
func (s *Store) StorePrediction(mission, objectID string, bundle *ml.PredictionBundle) error {
	if bundle == nil {
		return fmt.Errorf("nil prediction bundle")
	}
	record := PredictionRecord{
		ID:        uuid.NewString(),
		Mission:   mission,
		ObjectID:  objectID,
		Timestamp: time.Now(),
		Bundle:    *bundle,
	}
	return s.StorePredictionRecord(record)
}

// StorePredictionRecord stores a fully populated record.
func (s *Store) StorePredictionRecord(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.Mission, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions retrieves prediction records for a mission within a time range.
// The range is inclusive of both start and end times.
func (s *Store) GetPredictions(mission string, start, end time.Time) ([]PredictionRecord, error) {
	records, err := s.getRecordsInRange(predictionsBucket, mission, start, end, func(data []byte) (interface{}, error) {
		var record PredictionRecord
		err := json.Unmarshal(data, &record)
		return record, err
	})
	if err != nil {
		return nil, err
	}

	predictions := make([]PredictionRecord, len(records))
	for i, record := range records {
		predictions[i] = record.(PredictionRecord)
	}
	return predictions, nil
}
