package memory

import (
	"context"

	"quizduel/internal/domain"
)

// TopicKnowledge is what the simulated opponent "knows".
type TopicKnowledge interface {
	AnswerFor(topic string) (string, bool)
}

var simulatedBaseScores = []float64{0, 0, 1, 1, 1, 2}

// SimulatedOpponent is an offline ProgressSource. It always reports the current
// question as answered, and gets a point when it knows the topic.
type SimulatedOpponent struct {
	knowledge TopicKnowledge
}

func NewSimulatedOpponent(knowledge TopicKnowledge) *SimulatedOpponent {
	return &SimulatedOpponent{knowledge: knowledge}
}

func (s *SimulatedOpponent) OpponentProgress(ctx context.Context, query domain.ProgressQuery) (domain.OpponentProgress, error) {
	if err := ctx.Err(); err != nil {
		return domain.OpponentProgress{}, err
	}

	answer := "I'm not sure about that topic."
	eval := domain.Evaluation{Outcome: domain.OutcomeIncorrect, Score: 0, Feedback: "Opponent is unsure."}
	if s.knowledge != nil {
		if known, ok := s.knowledge.AnswerFor(query.Topic); ok {
			answer = known
			eval = domain.Evaluation{Outcome: domain.OutcomeCorrect, Score: 1, Feedback: "Opponent seems confident!"}
		}
	}

	return domain.OpponentProgress{
		Score:             simulatedBaseScores[clampIndex(query.QuestionID-1, len(simulatedBaseScores))] + eval.Score,
		QuestionsAnswered: max(query.QuestionID, 0),
		LastAnswer:        domain.Some(answer),
		LastEvaluation:    domain.Some(eval),
	}, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
