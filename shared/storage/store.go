package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"flyticker/internal/models"
)

const (
	weatherFilename     = "weather.json"
	evaluationsFilename = "evaluations.json"
)

// ErrNotFound is returned when no usable persisted document exists at any
// candidate location. A torn or unparsable file counts as not found so that
// callers fall back to regeneration instead of crashing.
var ErrNotFound = errors.New("no persisted data found")

// Store persists the weather document and the evaluation batch as flat JSON
// files. Reads check the ephemeral directory first (serverless deployments
// can only write /tmp), then the project-local data directory.
type Store struct {
	dataDir      string
	ephemeralDir string
}

func NewStore(dataDir, ephemeralDir string) *Store {
	return &Store{
		dataDir:      dataDir,
		ephemeralDir: ephemeralDir,
	}
}

// WeatherPath returns the preferred write location for the weather document.
func (s *Store) WeatherPath() string {
	return filepath.Join(s.dataDir, weatherFilename)
}

// LoadWeather reads the weather document from the first location that holds
// a parsable file.
func (s *Store) LoadWeather() (models.WeatherFile, error) {
	for _, path := range s.candidates(weatherFilename) {
		var doc models.WeatherFile
		if ok := loadJSON(path, &doc); ok && len(doc) > 0 {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: weather document", ErrNotFound)
}

// SaveWeather replaces the weather document. It writes the project-local
// file first and falls back to the ephemeral directory when the data dir is
// not writable.
func (s *Store) SaveWeather(doc models.WeatherFile) error {
	return s.saveJSON(weatherFilename, doc)
}

// SaveWeatherTo writes the weather document to an explicit path, creating
// parent directories as needed.
func (s *Store) SaveWeatherTo(path string, doc models.WeatherFile) error {
	return writeJSON(path, doc)
}

// LoadEvaluations reads the persisted evaluation batch using the same
// ephemeral-then-local chain as LoadWeather.
func (s *Store) LoadEvaluations() (models.EvaluationBatch, error) {
	for _, path := range s.candidates(evaluationsFilename) {
		var batch models.EvaluationBatch
		if ok := loadJSON(path, &batch); ok && len(batch.Evaluations) > 0 {
			return batch, nil
		}
	}
	return models.EvaluationBatch{}, fmt.Errorf("%w: evaluation batch", ErrNotFound)
}

// SaveEvaluations replaces the persisted evaluation batch wholesale.
func (s *Store) SaveEvaluations(batch models.EvaluationBatch) error {
	return s.saveJSON(evaluationsFilename, batch)
}

func (s *Store) candidates(filename string) []string {
	paths := make([]string, 0, 2)
	if s.ephemeralDir != "" {
		paths = append(paths, filepath.Join(s.ephemeralDir, filename))
	}
	paths = append(paths, filepath.Join(s.dataDir, filename))
	return paths
}

func (s *Store) saveJSON(filename string, v any) error {
	primary := filepath.Join(s.dataDir, filename)
	if err := writeJSON(primary, v); err == nil {
		return nil
	} else if s.ephemeralDir == "" {
		return err
	} else {
		log.Printf("Warning: could not write %s, falling back to ephemeral dir: %v", primary, err)
	}
	return writeJSON(filepath.Join(s.ephemeralDir, filename), v)
}

// loadJSON reports whether path held a parsable document. Decode failures are
// logged and treated as absence.
func loadJSON(path string, v any) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		log.Printf("Warning: failed to parse %s, ignoring: %v", path, err)
		return false
	}
	return true
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
