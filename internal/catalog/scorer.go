package catalog

import (
	"errors"
	"fmt"

	"serene/internal/domain"
)

// QuizLength is the number of questions in the assessment. A submission must
// answer every question exactly once.
const QuizLength = 7

var ErrBadSubmission = errors.New("quiz submission must answer all 7 questions")

// Answer is one submitted quiz answer: the question it belongs to and the
// skin type the chosen option votes for.
type Answer struct {
	QuestionID int             `json:"questionId"`
	SkinType   domain.SkinType `json:"skinType"`
}

// ScoreOutcome is the scorer's result: the dominant skin type plus the static
// result copy associated with it.
type ScoreOutcome struct {
	SkinType domain.SkinType
	Result   domain.QuizResult
}

// Score reduces a full quiz submission to its dominant skin type.
//
// Each answer votes for one skin type; the winner is the type with the
// strictly greatest tally. Ties resolve to the earliest type in
// domain.AllSkinTypes order, so the worked example
// [oily, oily, dry, oily, dry, dry, combination] scores oily even though dry
// reaches the same count. Pure function: no side effects, deterministic.
func (c *Catalog) Score(answers []Answer) (*ScoreOutcome, error) {
	if len(answers) != QuizLength {
		return nil, fmt.Errorf("%w: got %d answers", ErrBadSubmission, len(answers))
	}

	counts := make(map[domain.SkinType]int, len(domain.AllSkinTypes))
	for _, a := range answers {
		if !a.SkinType.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSkinType, a.SkinType)
		}
		counts[a.SkinType]++
	}

	winner := domain.AllSkinTypes[0]
	for _, s := range domain.AllSkinTypes[1:] {
		if counts[s] > counts[winner] {
			winner = s
		}
	}

	return &ScoreOutcome{
		SkinType: winner,
		Result:   c.quiz.Results[winner],
	}, nil
}
