package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const artifactVersion = 1

// Artifact is the serialized model bundle: everything needed to score a
// sample without retraining. Each run overwrites it wholesale.
type Artifact struct {
	Version      int                  `json:"version"`
	TrainedAt    time.Time            `json:"trained_at"`
	FeatureNames []string             `json:"feature_names"`
	Scaler       StandardScaler       `json:"scaler"`
	Classifier   CalibratedClassifier `json:"classifier"`
}

// SaveArtifact writes the bundle through a temp file and rename, so a
// concurrent reader never observes a partial artifact.
func SaveArtifact(path string, a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates the bundle at path. A missing file means
// the model has never been trained.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no artifact at %s", ErrModelNotTrained, path)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact %s corrupted: %w", path, err)
	}
	if len(a.Classifier.Weights) != len(a.FeatureNames) || len(a.Scaler.Mean) != len(a.FeatureNames) {
		return nil, fmt.Errorf("artifact %s corrupted: inconsistent feature dimensions", path)
	}
	return &a, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
