package scoring

import (
	"context"
	"strings"

	"quizduel/internal/domain"
)

// HeuristicScorer grades answers locally. It is the last resort when the scoring
// service is not configured: compare against the reference answer when there is one,
// otherwise pass anything longer than ten characters.
type HeuristicScorer struct {
	SimilarityThreshold float64
}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{SimilarityThreshold: 0.7}
}

func (h *HeuristicScorer) SubmitAnswer(_ context.Context, submission domain.AnswerSubmission) (domain.Evaluation, error) {
	if strings.TrimSpace(submission.ReferenceAnswer) == "" {
		return lengthHeuristic(submission.Answer), nil
	}
	return h.Evaluate(submission.Answer, submission.ReferenceAnswer), nil
}

// Evaluate compares case-insensitively: exact match, containment, then word overlap.
func (h *HeuristicScorer) Evaluate(answer, reference string) domain.Evaluation {
	a := strings.ToLower(strings.TrimSpace(answer))
	r := strings.ToLower(strings.TrimSpace(reference))

	if a == r {
		return domain.Evaluation{Outcome: domain.OutcomeCorrect, Score: 1, Feedback: "Correct!"}
	}
	if a != "" && (strings.Contains(r, a) || strings.Contains(a, r)) {
		return domain.Evaluation{
			Outcome:  domain.OutcomePartiallyCorrect,
			Score:    0.5,
			Feedback: "Partially correct. You're on the right track!",
		}
	}
	if sim := similarity(a, r); sim >= h.SimilarityThreshold {
		return domain.Evaluation{
			Outcome:  domain.OutcomePartiallyCorrect,
			Score:    sim,
			Feedback: "Close! You're on the right track.",
		}
	}
	return domain.Evaluation{Outcome: domain.OutcomeIncorrect, Score: 0, Feedback: "Incorrect. Try again!"}
}

func lengthHeuristic(answer string) domain.Evaluation {
	if len(answer) > 10 {
		return domain.Evaluation{Outcome: domain.OutcomeCorrect, Score: 1, Feedback: "Your answer is correct."}
	}
	return domain.Evaluation{Outcome: domain.OutcomeIncorrect, Score: 0, Feedback: "Please provide more details."}
}

// similarity is shared words longer than two letters over distinct words in both.
func similarity(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	inB := make(map[string]bool, len(wb))
	for _, w := range wb {
		inB[w] = true
	}
	distinct := make(map[string]bool, len(wa)+len(wb))
	matches := 0
	for _, w := range wa {
		if len(w) > 2 && inB[w] {
			matches++
		}
		distinct[w] = true
	}
	for _, w := range wb {
		distinct[w] = true
	}
	if len(distinct) == 0 {
		return 0
	}
	return float64(matches) / float64(len(distinct))
}
