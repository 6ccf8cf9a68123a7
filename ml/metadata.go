package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Metadata is the training-run summary persisted next to the artifact.
// Every field is optional: a file created by a threshold update alone
// carries only the two user keys. Class maps are keyed by label ("0"/"1").
type Metadata struct {
	ROCAUC               *float64           `json:"roc_auc,omitempty"`
	SamplesUsed          *int               `json:"samples_used,omitempty"`
	ClassCounts          map[string]int     `json:"class_counts,omitempty"`
	ClassDistribution    map[string]float64 `json:"class_distribution,omitempty"`
	RecommendedThreshold *float64           `json:"recommended_threshold,omitempty"`
	UserThreshold        *float64           `json:"user_threshold,omitempty"`
	UserThresholdSetAt   *time.Time         `json:"user_threshold_set_at,omitempty"`
}

// WithUserThreshold returns a copy with the two user keys replaced and
// every other key untouched.
func (m Metadata) WithUserThreshold(value float64, at time.Time) Metadata {
	m.UserThreshold = &value
	m.UserThresholdSetAt = &at
	return m
}

// MetadataStore reads and writes the metadata file.
type MetadataStore struct {
	path string
}

func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path}
}

func (s *MetadataStore) Path() string { return s.path }

// Load returns the stored metadata. A missing or unparseable file means
// "no metadata": threshold resolution and merging degrade instead of
// failing.
func (s *MetadataStore) Load() (Metadata, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("metadata unreadable, treating as absent")
		}
		return Metadata{}, false
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("metadata corrupted, treating as absent")
		return Metadata{}, false
	}
	return m, true
}

// Save writes metadata atomically.
func (s *MetadataStore) Save(m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}
