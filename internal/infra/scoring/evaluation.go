package scoring

import "quizduel/internal/domain"

var feedbackMessages = map[domain.Outcome]string{
	domain.OutcomeCorrect:          "Excellent! Your answer is correct.",
	domain.OutcomePartiallyCorrect: "Good attempt! Your answer is partially correct.",
	domain.OutcomeIncorrect:        "Not quite right. Try again next time.",
}

// OutcomeForScore maps the classifier's predicted score (0..3) to an outcome.
func OutcomeForScore(score float64) domain.Outcome {
	switch {
	case score >= 3:
		return domain.OutcomeCorrect
	case score >= 2:
		return domain.OutcomePartiallyCorrect
	default:
		return domain.OutcomeIncorrect
	}
}

// EvaluationForScore keeps the raw score; it is what gets added to the participant.
func EvaluationForScore(score float64) domain.Evaluation {
	outcome := OutcomeForScore(score)
	return domain.Evaluation{
		Outcome:  outcome,
		Score:    score,
		Feedback: feedbackMessages[outcome],
	}
}
