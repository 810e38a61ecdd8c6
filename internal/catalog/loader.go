package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/apprentio/apprentio/internal/domain"
)

// PackFile is the YAML structure of a pack manifest (pack.yaml).
type PackFile struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Subject     string   `yaml:"subject"`
	Level       string   `yaml:"level"`
	Exercises   []string `yaml:"exercises"`
}

// ExerciseFile is the YAML structure of a single exercise file. The config
// block is decoded in a second pass once the type is known.
type ExerciseFile struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	Concept          string    `yaml:"concept"`
	Subject          string    `yaml:"subject"`
	Level            string    `yaml:"level"`
	Tier             string    `yaml:"tier"`
	Type             string    `yaml:"type"`
	EstimatedSeconds int       `yaml:"estimated_seconds"`
	Config           yaml.Node `yaml:"config"`
}

// Pack groups the exercises of one subject and school level.
type Pack struct {
	ID          string
	Name        string
	Version     string
	Description string
	Subject     string
	Level       string
	ExerciseIDs []string
}

// Loader reads exercise packs from a directory tree laid out as
// basePath/<packID>/pack.yaml plus one YAML file per exercise.
type Loader struct {
	basePath string
}

// NewLoader creates a loader rooted at basePath.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadPack loads a pack manifest from a directory.
func (l *Loader) LoadPack(packID string) (*Pack, error) {
	packPath := filepath.Join(l.basePath, packID, "pack.yaml")

	data, err := os.ReadFile(packPath)
	if err != nil {
		return nil, fmt.Errorf("read pack file: %w", err)
	}

	var packFile PackFile
	if err := yaml.Unmarshal(data, &packFile); err != nil {
		return nil, fmt.Errorf("parse pack file: %w", err)
	}

	pack := &Pack{
		ID:          packFile.ID,
		Name:        packFile.Name,
		Version:     packFile.Version,
		Description: packFile.Description,
		Subject:     packFile.Subject,
		Level:       packFile.Level,
		ExerciseIDs: make([]string, len(packFile.Exercises)),
	}
	for i, slug := range packFile.Exercises {
		pack.ExerciseIDs[i] = fmt.Sprintf("%s/%s", packID, slug)
	}
	return pack, nil
}

// LoadExercise loads a single exercise from a YAML file. The pack's subject
// and level are used as defaults when the exercise file omits them.
func (l *Loader) LoadExercise(pack *Pack, slug string) (*domain.Exercise, error) {
	exercisePath := filepath.Join(l.basePath, pack.ID, slug+".yaml")

	data, err := os.ReadFile(exercisePath)
	if err != nil {
		return nil, fmt.Errorf("read exercise file: %w", err)
	}

	var exFile ExerciseFile
	if err := yaml.Unmarshal(data, &exFile); err != nil {
		return nil, fmt.Errorf("parse exercise file: %w", err)
	}

	exerciseType := domain.ExerciseType(exFile.Type)
	config, err := domain.NewExerciseConfig(exerciseType)
	if err != nil {
		return nil, fmt.Errorf("exercise %s/%s: %w", pack.ID, slug, err)
	}
	if exFile.Config.Kind != 0 {
		if err := exFile.Config.Decode(config); err != nil {
			return nil, fmt.Errorf("exercise %s/%s: parse config: %w", pack.ID, slug, err)
		}
	}

	exercise := &domain.Exercise{
		ID:               fmt.Sprintf("%s/%s", pack.ID, slug),
		Title:            exFile.Title,
		Concept:          exFile.Concept,
		Subject:          exFile.Subject,
		Level:            exFile.Level,
		Tier:             domain.Tier(exFile.Tier),
		Type:             exerciseType,
		Config:           config,
		EstimatedSeconds: exFile.EstimatedSeconds,
	}
	if exercise.Subject == "" {
		exercise.Subject = pack.Subject
	}
	if exercise.Level == "" {
		exercise.Level = pack.Level
	}
	return exercise, nil
}

// LoadAllPacks loads every pack manifest under the base directory.
func (l *Loader) LoadAllPacks() ([]*Pack, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog directory: %w", err)
	}

	var packs []*Pack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		packPath := filepath.Join(l.basePath, entry.Name(), "pack.yaml")
		if _, err := os.Stat(packPath); os.IsNotExist(err) {
			continue
		}

		pack, err := l.LoadPack(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load pack %s: %w", entry.Name(), err)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// LoadPackExercises loads every exercise listed in a pack manifest.
func (l *Loader) LoadPackExercises(pack *Pack) ([]*domain.Exercise, error) {
	exercises := make([]*domain.Exercise, 0, len(pack.ExerciseIDs))
	for _, exID := range pack.ExerciseIDs {
		slug := exID[len(pack.ID)+1:]

		exercise, err := l.LoadExercise(pack, slug)
		if err != nil {
			return nil, fmt.Errorf("load exercise %s: %w", exID, err)
		}
		exercises = append(exercises, exercise)
	}
	return exercises, nil
}
