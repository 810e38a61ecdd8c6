package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apprentio/apprentio/internal/domain"
)

const packManifest = `id: maths-ce1
name: Maths CE1
version: "1.0.0"
description: Numeration et calcul pour le CE1
subject: maths
level: ce1
exercises:
  - addition-simple-1
  - addition-retenue-1
  - probleme-monnaie-1
`

const additionSimple = `id: addition-simple-1
title: Additions sans retenue
concept: addition_simple
tier: FACILE
type: calcul
estimated_seconds: 30
config:
  operation: addition
  operand_count: 2
  max_value: 20
  with_carry: false
`

const additionCarry = `id: addition-retenue-1
title: Additions avec retenue
concept: addition_retenue
tier: MOYEN
type: calcul
estimated_seconds: 45
config:
  operation: addition
  operand_count: 2
  max_value: 100
  with_carry: true
`

const problemMoney = `id: probleme-monnaie-1
title: Rendre la monnaie
concept: probleme_monnaie
tier: DIFFICILE
type: probleme
estimated_seconds: 120
config:
  statement: "Lea achete un cahier a 3 euros et paie avec un billet de 10 euros."
  steps: 2
  answer: "7 euros"
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	packDir := filepath.Join(base, "maths-ce1")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"pack.yaml":               packManifest,
		"addition-simple-1.yaml":  additionSimple,
		"addition-retenue-1.yaml": additionCarry,
		"probleme-monnaie-1.yaml": problemMoney,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(packDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return base
}

func loadedRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry(NewLoader(writeCatalog(t)))
	if err := registry.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return registry
}

func TestLoadPack(t *testing.T) {
	loader := NewLoader(writeCatalog(t))

	pack, err := loader.LoadPack("maths-ce1")
	if err != nil {
		t.Fatalf("LoadPack() error = %v", err)
	}
	if pack.Subject != "maths" || pack.Level != "ce1" {
		t.Errorf("subject/level = %q/%q, want maths/ce1", pack.Subject, pack.Level)
	}
	if len(pack.ExerciseIDs) != 3 {
		t.Fatalf("len(ExerciseIDs) = %d, want 3", len(pack.ExerciseIDs))
	}
	if pack.ExerciseIDs[0] != "maths-ce1/addition-simple-1" {
		t.Errorf("ExerciseIDs[0] = %q, want pack-qualified slug", pack.ExerciseIDs[0])
	}
}

func TestLoadExerciseDecodesTypedConfig(t *testing.T) {
	registry := loadedRegistry(t)

	calc, err := registry.Get("maths-ce1/addition-retenue-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	config, ok := calc.Config.(*domain.CalculationConfig)
	if !ok {
		t.Fatalf("config type = %T, want *domain.CalculationConfig", calc.Config)
	}
	if !config.WithCarry || config.MaxValue != 100 {
		t.Errorf("config = %+v, want with_carry=true max_value=100", config)
	}

	problem, err := registry.Get("maths-ce1/probleme-monnaie-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	problemConfig, ok := problem.Config.(*domain.ProblemConfig)
	if !ok {
		t.Fatalf("config type = %T, want *domain.ProblemConfig", problem.Config)
	}
	if problemConfig.Steps != 2 || problemConfig.Answer != "7 euros" {
		t.Errorf("config = %+v, want steps=2 answer=\"7 euros\"", problemConfig)
	}
}

func TestLoadExerciseInheritsPackDefaults(t *testing.T) {
	registry := loadedRegistry(t)

	ex, err := registry.Get("maths-ce1/addition-simple-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ex.Subject != "maths" {
		t.Errorf("subject = %q, want pack default maths", ex.Subject)
	}
	if ex.Level != "ce1" {
		t.Errorf("level = %q, want pack default ce1", ex.Level)
	}
}

func TestLoadRejectsUnknownType(t *testing.T) {
	base := writeCatalog(t)
	bad := `id: chant-1
title: Chanson
concept: chant
tier: FACILE
type: karaoke
`
	if err := os.WriteFile(filepath.Join(base, "maths-ce1", "chant-1.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := packManifest + "  - chant-1\n"
	if err := os.WriteFile(filepath.Join(base, "maths-ce1", "pack.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry(NewLoader(base))
	err := registry.Load()
	if !errors.Is(err, domain.ErrUnknownExerciseType) {
		t.Errorf("Load() error = %v, want ErrUnknownExerciseType", err)
	}
}

func TestRegistryLookups(t *testing.T) {
	registry := loadedRegistry(t)

	t.Run("get missing", func(t *testing.T) {
		_, err := registry.Get("maths-ce1/nope")
		if !errors.Is(err, domain.ErrExerciseNotFound) {
			t.Errorf("Get() error = %v, want ErrExerciseNotFound", err)
		}
	})

	t.Run("type of", func(t *testing.T) {
		typ, ok := registry.TypeOf("maths-ce1/probleme-monnaie-1")
		if !ok || typ != domain.TypeProblem {
			t.Errorf("TypeOf() = %q, %v, want probleme, true", typ, ok)
		}
		if _, ok := registry.TypeOf("maths-ce1/nope"); ok {
			t.Error("TypeOf() on unknown ID should report false")
		}
	})

	t.Run("by concept", func(t *testing.T) {
		got := registry.ByConcept("addition_retenue")
		if len(got) != 1 || got[0].ID != "maths-ce1/addition-retenue-1" {
			t.Errorf("ByConcept() = %v, want the single retenue exercise", got)
		}
	})

	t.Run("by subject sorted", func(t *testing.T) {
		got := registry.BySubject("maths")
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].ID > got[i].ID {
				t.Errorf("BySubject() not sorted at %d: %q > %q", i, got[i-1].ID, got[i].ID)
			}
		}
	})

	t.Run("by level", func(t *testing.T) {
		if got := registry.ByLevel("cm2"); len(got) != 0 {
			t.Errorf("ByLevel(cm2) = %v, want empty", got)
		}
	})
}

func TestStats(t *testing.T) {
	registry := loadedRegistry(t)

	stats := registry.Stats()
	if stats.PackCount != 1 || stats.ExerciseCount != 3 {
		t.Errorf("stats = %+v, want 1 pack, 3 exercises", stats)
	}
	if stats.ByTier["FACILE"] != 1 || stats.ByTier["MOYEN"] != 1 || stats.ByTier["DIFFICILE"] != 1 {
		t.Errorf("ByTier = %v, want one of each", stats.ByTier)
	}
	if stats.ByType["calcul"] != 2 {
		t.Errorf("ByType[calcul] = %d, want 2", stats.ByType["calcul"])
	}
}

func TestReload(t *testing.T) {
	base := writeCatalog(t)
	registry := NewRegistry(NewLoader(base))
	if err := registry.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.Remove(filepath.Join(base, "maths-ce1", "pack.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := registry.Stats().ExerciseCount; got != 0 {
		t.Errorf("exercise count after reload = %d, want 0", got)
	}
}
