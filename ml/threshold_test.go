package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func metadataWith(user, recommended *float64) *Metadata {
	return &Metadata{UserThreshold: user, RecommendedThreshold: recommended}
}

func TestThresholdResolverPriority(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		env        string
		meta       *Metadata
		want       float64
		wantSource ThresholdSource
	}{
		{
			name:       "env wins over everything",
			env:        "0.35",
			meta:       metadataWith(f(0.7), f(0.55)),
			want:       0.35,
			wantSource: ThresholdSourceEnv,
		},
		{
			name:       "user threshold wins without env",
			meta:       metadataWith(f(0.7), f(0.55)),
			want:       0.7,
			wantSource: ThresholdSourceUser,
		},
		{
			name:       "recommended when user absent",
			meta:       metadataWith(nil, f(0.55)),
			want:       0.55,
			wantSource: ThresholdSourceRecommended,
		},
		{
			name:       "default when metadata empty",
			meta:       &Metadata{},
			want:       DefaultThreshold,
			wantSource: ThresholdSourceDefault,
		},
		{
			name:       "default when metadata missing",
			want:       DefaultThreshold,
			wantSource: ThresholdSourceDefault,
		},
		{
			name:       "unparseable env falls through to user",
			env:        "abc",
			meta:       metadataWith(f(0.7), f(0.55)),
			want:       0.7,
			wantSource: ThresholdSourceUser,
		},
		{
			name:       "out-of-range env falls through",
			env:        "1.5",
			meta:       metadataWith(nil, f(0.55)),
			want:       0.55,
			wantSource: ThresholdSourceRecommended,
		},
		{
			name:       "out-of-range user falls through to recommended",
			meta:       metadataWith(f(0.0), f(0.55)),
			want:       0.55,
			wantSource: ThresholdSourceRecommended,
		},
		{
			name:       "out-of-range recommended falls through to default",
			meta:       metadataWith(nil, f(1.0)),
			want:       DefaultThreshold,
			wantSource: ThresholdSourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
			if tt.meta != nil {
				if err := store.Save(*tt.meta); err != nil {
					t.Fatalf("seeding metadata: %v", err)
				}
			}

			got, source := NewThresholdResolver(tt.env, store).Resolve()
			if got != tt.want {
				t.Errorf("Resolve() threshold = %v, want %v", got, tt.want)
			}
			if source != tt.wantSource {
				t.Errorf("Resolve() source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestThresholdResolverCorruptMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte("{{"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, source := NewThresholdResolver("", NewMetadataStore(path)).Resolve()
	if got != DefaultThreshold || source != ThresholdSourceDefault {
		t.Errorf("Resolve() = (%v, %q), want (%v, %q)", got, source, DefaultThreshold, ThresholdSourceDefault)
	}
}

func TestSetUserThreshold(t *testing.T) {
	store := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
	auc := 0.88
	if err := store.Save(Metadata{ROCAUC: &auc}); err != nil {
		t.Fatalf("seeding metadata: %v", err)
	}

	resolver := NewThresholdResolver("", store)
	before := time.Now().UTC()
	merged, err := resolver.SetUserThreshold(0.42)
	if err != nil {
		t.Fatalf("SetUserThreshold() error: %v", err)
	}

	if merged.UserThreshold == nil || *merged.UserThreshold != 0.42 {
		t.Errorf("merged.UserThreshold = %v, want 0.42", merged.UserThreshold)
	}
	if merged.ROCAUC == nil || *merged.ROCAUC != auc {
		t.Errorf("merged.ROCAUC = %v, want %v preserved", merged.ROCAUC, auc)
	}
	if merged.UserThresholdSetAt == nil || merged.UserThresholdSetAt.Before(before) {
		t.Errorf("merged.UserThresholdSetAt = %v, want at or after %v", merged.UserThresholdSetAt, before)
	}

	reloaded, ok := store.Load()
	if !ok {
		t.Fatal("metadata missing after SetUserThreshold")
	}
	if reloaded.UserThreshold == nil || *reloaded.UserThreshold != 0.42 {
		t.Errorf("persisted UserThreshold = %v, want 0.42", reloaded.UserThreshold)
	}

	got, source := resolver.Resolve()
	if got != 0.42 || source != ThresholdSourceUser {
		t.Errorf("Resolve() = (%v, %q), want (0.42, %q)", got, source, ThresholdSourceUser)
	}
}

func TestSetUserThresholdInvalid(t *testing.T) {
	store := NewMetadataStore(filepath.Join(t.TempDir(), "metadata.json"))
	resolver := NewThresholdResolver("", store)

	for _, v := range []float64{0, 1, -0.2, 1.7} {
		_, err := resolver.SetUserThreshold(v)
		var thresholdErr *InvalidThresholdError
		if !errors.As(err, &thresholdErr) {
			t.Errorf("SetUserThreshold(%v) error = %v, want InvalidThresholdError", v, err)
			continue
		}
		if thresholdErr.Value != v {
			t.Errorf("InvalidThresholdError.Value = %v, want %v", thresholdErr.Value, v)
		}
	}

	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("invalid threshold must not create a metadata file")
	}
}
