package domain

// Exercise represents a practice task from the catalog.
// The engine never mutates exercises; they are owned by the catalog.
type Exercise struct {
	ID               string // slug: "maths-ce1/addition-simple-1"
	Title            string
	Concept          string // competency tag: "addition_simple", "addition_retenue"
	Subject          string // "maths", "francais"
	Level            string // school level: "cp", "ce1", "ce2"
	Tier             Tier
	Type             ExerciseType
	Config           ExerciseConfig
	EstimatedSeconds int
}

// Tier represents the catalog's three ordinal difficulty levels.
type Tier string

const (
	TierFacile    Tier = "FACILE"
	TierMoyen     Tier = "MOYEN"
	TierDifficile Tier = "DIFFICILE"
)

// NumericDifficulty maps the tier onto the 1-5 difficulty scale used by the
// adaptation engine. Unknown tiers land in the middle of the scale.
func (t Tier) NumericDifficulty() float64 {
	switch t {
	case TierFacile:
		return 2.0
	case TierMoyen:
		return 3.0
	case TierDifficile:
		return 4.0
	default:
		return 3.0
	}
}

// NumericDifficulty returns the exercise difficulty on the 1-5 scale.
func (e *Exercise) NumericDifficulty() float64 {
	return e.Tier.NumericDifficulty()
}

// ExerciseType tags the exercise format. The adaptation engine keys its
// expected-duration table on this tag.
type ExerciseType string

const (
	TypeCalculation    ExerciseType = "calcul"
	TypeMultipleChoice ExerciseType = "qcm"
	TypeDictation      ExerciseType = "dictee"
	TypeProblem        ExerciseType = "probleme"
)
