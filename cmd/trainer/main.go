package main

import (
	"flag"
	"os"

	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/config"
	"github.com/Programmer-Ayush-Raj/Student-Performance-Predictor/ml"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Offline trainer: runs the same pipeline as POST /api/retrain against a
// CSV on disk, for seeding a model before the API ever starts.
func main() {
	dataset := flag.String("dataset", "", "training CSV (defaults to the configured data dir)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	csvPath := *dataset
	if csvPath == "" {
		csvPath = cfg.Model.TrainingDataPath()
	}

	store := ml.NewMetadataStore(cfg.Model.MetadataPath)
	trainer := ml.NewTrainer(cfg.Model.ModelPath, store)

	result, err := trainer.TrainFromCSV(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("dataset", csvPath).Msg("training failed")
	}

	log.Info().
		Str("dataset", csvPath).
		Int("samples", result.SamplesUsed).
		Float64("accuracy", result.Accuracy).
		Float64("precision", result.Precision).
		Float64("recall", result.Recall).
		Float64("f1", result.F1).
		Float64("roc_auc", result.ROCAUC).
		Float64("recommended_threshold", result.RecommendedThreshold).
		Str("model", result.ModelPath).
		Str("metadata", result.MetadataPath).
		Msg("model trained")
}
