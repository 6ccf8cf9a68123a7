package ml

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ThresholdSource names where a resolved decision threshold came from.
type ThresholdSource string

const (
	ThresholdSourceEnv         ThresholdSource = "env"
	ThresholdSourceUser        ThresholdSource = "metadata:user"
	ThresholdSourceRecommended ThresholdSource = "metadata:recommended"
	ThresholdSourceDefault     ThresholdSource = "default"
)

// DefaultThreshold is the decision cut used when nothing else is configured.
const DefaultThreshold = 0.6

// ThresholdResolver picks the serving-time decision threshold. Priority:
// environment override, then the admin-set user threshold, then the last
// run's recommended threshold, then DefaultThreshold. Invalid candidates
// are skipped with a warning; resolution never fails.
type ThresholdResolver struct {
	envOverride string
	store       *MetadataStore
}

// NewThresholdResolver takes the raw PRED_THRESHOLD value, which may be
// empty, and the metadata store. The override is injected here rather than
// read ambiently so resolution stays deterministic per process.
func NewThresholdResolver(envOverride string, store *MetadataStore) *ThresholdResolver {
	return &ThresholdResolver{envOverride: envOverride, store: store}
}

func validThreshold(v float64) bool { return v > 0.0 && v < 1.0 }

// Resolve returns the active threshold and its source.
func (r *ThresholdResolver) Resolve() (float64, ThresholdSource) {
	if r.envOverride != "" {
		v, err := strconv.ParseFloat(r.envOverride, 64)
		if err == nil && validThreshold(v) {
			return v, ThresholdSourceEnv
		}
		log.Warn().Str("value", r.envOverride).Msg("ignoring invalid PRED_THRESHOLD override")
	}

	if meta, ok := r.store.Load(); ok {
		if meta.UserThreshold != nil {
			if validThreshold(*meta.UserThreshold) {
				return *meta.UserThreshold, ThresholdSourceUser
			}
			log.Warn().Float64("value", *meta.UserThreshold).Msg("ignoring out-of-range user threshold")
		}
		if meta.RecommendedThreshold != nil {
			if validThreshold(*meta.RecommendedThreshold) {
				return *meta.RecommendedThreshold, ThresholdSourceRecommended
			}
			log.Warn().Float64("value", *meta.RecommendedThreshold).Msg("ignoring out-of-range recommended threshold")
		}
	}

	return DefaultThreshold, ThresholdSourceDefault
}

// SetUserThreshold validates and persists an admin-chosen threshold,
// merging it into whatever metadata already exists. A missing metadata
// file is created holding only the two user keys.
func (r *ThresholdResolver) SetUserThreshold(value float64) (Metadata, error) {
	if !validThreshold(value) {
		return Metadata{}, &InvalidThresholdError{Value: value}
	}

	current, _ := r.store.Load()
	merged := current.WithUserThreshold(value, time.Now().UTC())
	if err := r.store.Save(merged); err != nil {
		return Metadata{}, err
	}
	return merged, nil
}
