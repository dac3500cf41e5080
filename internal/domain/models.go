package domain

import "time"

// Question is a single prompt in a match. IDs are 1-based and match the submission protocol.
type Question struct {
	ID              int    `json:"id"`
	Prompt          string `json:"prompt"`
	// ReferenceAnswer stays server side; only scorers see it.
	ReferenceAnswer string `json:"-"`
	Topic           string `json:"topic"`
	Context         string `json:"context,omitempty"`
}

// Outcome classifies an evaluated answer.
type Outcome string

const (
	OutcomeCorrect          Outcome = "CORRECT"
	OutcomePartiallyCorrect Outcome = "PARTIALLY_CORRECT"
	OutcomeIncorrect        Outcome = "INCORRECT"
)

// Evaluation is the scoring service's verdict on a submitted answer.
type Evaluation struct {
	Outcome  Outcome `json:"outcome"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
}

// Participant is a local or remote contestant.
type Participant struct {
	ID                string               `json:"id"`
	DisplayName       string               `json:"displayName"`
	Score             float64              `json:"score"`
	QuestionsAnswered int                  `json:"questionsAnswered"`
	LastAnswer        Optional[string]     `json:"lastAnswer"`
	LastEvaluation    Optional[Evaluation] `json:"lastEvaluation"`
}

// ResetStats zeroes everything but identity.
func (p *Participant) ResetStats() {
	p.Score = 0
	p.QuestionsAnswered = 0
	p.LastAnswer = None[string]()
	p.LastEvaluation = None[Evaluation]()
}

// HistoryEntry records one local submission, timeout or skip.
type HistoryEntry struct {
	Question   Question   `json:"question"`
	Answer     string     `json:"answer"`
	Evaluation Evaluation `json:"evaluation"`
	Flagged    bool       `json:"flagged"`
}

// Countdown is the per-question timer state.
type Countdown struct {
	Remaining int  `json:"remaining"`
	Active    bool `json:"active"`
}

// Progress returns the remaining share of the budget as a percentage.
func (c Countdown) Progress(limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(c.Remaining) / float64(limit) * 100
}

// AnswerSubmission is what gets sent to the scoring service.
type AnswerSubmission struct {
	QuestionID   int    `json:"questionId"`
	QuestionText string `json:"questionText"`
	Answer       string `json:"answer"`
	// ReferenceAnswer is not sent over the wire; offline scorers use it.
	ReferenceAnswer string `json:"-"`
}

// ProgressQuery asks for a remote participant's progress at a given question.
type ProgressQuery struct {
	MatchID       string `json:"matchId"`
	ParticipantID string `json:"participantId"`
	QuestionID    int    `json:"questionId"`
	Topic         string `json:"topic"`
	// Since is when the asking match started. Progress published before it belongs to
	// an earlier match in the same lobby.
	Since time.Time `json:"since"`
}

// OpponentProgress is the authoritative remote view of a participant.
type OpponentProgress struct {
	Score             float64              `json:"score"`
	QuestionsAnswered int                  `json:"questionsAnswered"`
	LastAnswer        Optional[string]     `json:"lastAnswer"`
	LastEvaluation    Optional[Evaluation] `json:"lastEvaluation"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// StaleFor reports whether p was published before the asking match started.
// Unstamped progress is stale for any query that carries a start time.
func (p OpponentProgress) StaleFor(q ProgressQuery) bool {
	if q.Since.IsZero() {
		return false
	}
	return p.UpdatedAt.Before(q.Since)
}

// Settings are the user-adjustable match parameters.
type Settings struct {
	QuestionTimeLimit int `json:"questionTimeLimit"`
	NumberOfPlayers   int `json:"numberOfPlayers"`
	QuestionCount     int `json:"questionCount"`
}

const (
	MinTimeLimit  = 10
	MaxTimeLimit  = 60
	TimeLimitStep = 5
	MinPlayers    = 2
	MaxPlayers    = 4
)

// DefaultSettings mirrors the starter screen defaults.
func DefaultSettings() Settings {
	return Settings{
		QuestionTimeLimit: 30,
		NumberOfPlayers:   2,
		QuestionCount:     5,
	}
}

// Validate reports whether the settings are within the allowed ranges.
func (s Settings) Validate() error {
	if s.QuestionTimeLimit < MinTimeLimit || s.QuestionTimeLimit > MaxTimeLimit || s.QuestionTimeLimit%TimeLimitStep != 0 {
		return ErrInvalidSettings
	}
	if s.NumberOfPlayers < MinPlayers || s.NumberOfPlayers > MaxPlayers {
		return ErrInvalidSettings
	}
	if s.QuestionCount < 1 {
		return ErrInvalidSettings
	}
	return nil
}

// Snapshot is the read-only view handed to observers.
type Snapshot struct {
	MatchID      string         `json:"matchId"`
	State        LifecycleState `json:"state"`
	Settings     Settings       `json:"settings"`
	Questions    []Question     `json:"questions"`
	CurrentIndex int            `json:"currentIndex"`
	LocalID      string         `json:"localId"`
	Participants []Participant  `json:"participants"`
	Countdown    Countdown      `json:"countdown"`
	// CountdownProgress is the remaining share of the time budget, 0..100.
	CountdownProgress float64        `json:"countdownProgress"`
	StartedAt         time.Time      `json:"startedAt"`
	Polling           bool           `json:"polling"`
	Loading           bool           `json:"loading"`
	LoadingQuestions  bool           `json:"loadingQuestions"`
	Submitting        bool           `json:"submitting"`
	History           []HistoryEntry `json:"history"`
	Reviewing         bool           `json:"reviewing"`
	SelectedCount     int            `json:"selectedCount"`
}

// CurrentQuestion returns the question at CurrentIndex, if any.
func (s Snapshot) CurrentQuestion() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Participant looks up a participant by ID.
func (s Snapshot) Participant(id string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
