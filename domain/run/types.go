package run

import (
	"crypto/sha256"
	"fmt"
	"time"

	"featurelab/domain/core"
)

// Record is the persisted summary of one clustering run
type Record struct {
	ID           core.ID   `json:"id" db:"id"`
	SessionID    core.ID   `json:"session_id" db:"session_id"`
	Dataset      string    `json:"dataset" db:"dataset"`
	RowCount     int       `json:"row_count" db:"row_count"`
	FeatureCount int       `json:"feature_count" db:"feature_count"`
	Reduction    string    `json:"reduction" db:"reduction"`
	Components   int       `json:"components" db:"components"`
	Algorithm    string    `json:"algorithm" db:"algorithm"`
	Clusters     int       `json:"clusters" db:"clusters"`
	NoiseCount   int       `json:"noise_count" db:"noise_count"`
	Seed         int64     `json:"seed" db:"seed"`
	Fingerprint  string    `json:"fingerprint" db:"fingerprint"`
	Messages     []string  `json:"messages" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"-"`
}

// Fingerprint hashes everything that determines a run's output so identical
// configurations over the same dataset can be recognised as replays.
func Fingerprint(dataset string, rows int, seed int64, config interface{}) string {
	data := fmt.Sprintf("dataset:%s|rows:%d|seed:%d|config:%+v", dataset, rows, seed, config)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum[:16])
}
