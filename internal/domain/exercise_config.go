package domain

import "fmt"

// ExerciseConfig is the per-type exercise configuration. Each exercise type
// carries a different shape, so the config is a closed union rather than a
// bag of optional fields.
type ExerciseConfig interface {
	Kind() ExerciseType
}

// CalculationConfig configures a mental-arithmetic exercise.
type CalculationConfig struct {
	Operation    string `yaml:"operation" json:"operation"` // "addition", "soustraction", ...
	OperandCount int    `yaml:"operand_count" json:"operand_count"`
	MaxValue     int    `yaml:"max_value" json:"max_value"`
	WithCarry    bool   `yaml:"with_carry" json:"with_carry"`
}

func (CalculationConfig) Kind() ExerciseType { return TypeCalculation }

// MultipleChoiceConfig configures a QCM exercise.
type MultipleChoiceConfig struct {
	Question string   `yaml:"question" json:"question"`
	Choices  []string `yaml:"choices" json:"choices"`
	Answer   int      `yaml:"answer" json:"answer"` // index into Choices
}

func (MultipleChoiceConfig) Kind() ExerciseType { return TypeMultipleChoice }

// DictationConfig configures a dictation exercise.
type DictationConfig struct {
	Sentence string `yaml:"sentence" json:"sentence"`
	AudioURL string `yaml:"audio_url" json:"audio_url"`
}

func (DictationConfig) Kind() ExerciseType { return TypeDictation }

// ProblemConfig configures a word-problem exercise.
type ProblemConfig struct {
	Statement string `yaml:"statement" json:"statement"`
	Steps     int    `yaml:"steps" json:"steps"`
	Answer    string `yaml:"answer" json:"answer"`
}

func (ProblemConfig) Kind() ExerciseType { return TypeProblem }

// NewExerciseConfig returns the zero config for an exercise type, used as a
// decode target by the catalog loader.
func NewExerciseConfig(t ExerciseType) (ExerciseConfig, error) {
	switch t {
	case TypeCalculation:
		return &CalculationConfig{}, nil
	case TypeMultipleChoice:
		return &MultipleChoiceConfig{}, nil
	case TypeDictation:
		return &DictationConfig{}, nil
	case TypeProblem:
		return &ProblemConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExerciseType, t)
	}
}
