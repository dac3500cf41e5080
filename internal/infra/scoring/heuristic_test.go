package scoring

import (
	"context"
	"testing"

	"quizduel/internal/domain"
)

func TestHeuristicScorer(t *testing.T) {
	h := NewHeuristicScorer()
	cases := []struct {
		name      string
		answer    string
		reference string
		outcome   domain.Outcome
		score     float64
	}{
		{"exact ignoring case", "  paris ", "Paris", domain.OutcomeCorrect, 1},
		{"containment", "Shakespeare", "William Shakespeare", domain.OutcomePartiallyCorrect, 0.5},
		{"unrelated", "London", "Paris", domain.OutcomeIncorrect, 0},
		{"no reference long answer", "the average of all the values", "", domain.OutcomeCorrect, 1},
		{"no reference short answer", "avg", "", domain.OutcomeIncorrect, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval, err := h.SubmitAnswer(context.Background(), domain.AnswerSubmission{
				Answer:          tc.answer,
				ReferenceAnswer: tc.reference,
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if eval.Outcome != tc.outcome || eval.Score != tc.score {
				t.Fatalf("expected %s/%v, got %+v", tc.outcome, tc.score, eval)
			}
		})
	}
}

func TestHeuristicSimilarity(t *testing.T) {
	h := &HeuristicScorer{SimilarityThreshold: 0.5}
	eval := h.Evaluate("sum values divide", "sum values divide count")
	// containment wins before similarity
	if eval.Outcome != domain.OutcomePartiallyCorrect || eval.Score != 0.5 {
		t.Fatalf("unexpected evaluation %+v", eval)
	}

	eval = h.Evaluate("middle sorted value", "value sorted middle")
	if eval.Outcome != domain.OutcomePartiallyCorrect || eval.Score != 1 {
		t.Fatalf("expected full word overlap, got %+v", eval)
	}
}

func TestOutcomeForScore(t *testing.T) {
	if OutcomeForScore(3.4) != domain.OutcomeCorrect || OutcomeForScore(2.0) != domain.OutcomePartiallyCorrect || OutcomeForScore(1.99) != domain.OutcomeIncorrect {
		t.Fatalf("unexpected outcome mapping")
	}
}
