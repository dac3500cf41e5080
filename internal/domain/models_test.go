package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLifecycleTransitions(t *testing.T) {
	cases := []struct {
		from, to LifecycleState
		allowed  bool
	}{
		{StateIdle, StateConfiguring, true},
		{StateIdle, StateActive, true},
		{StateConfiguring, StateIdle, true},
		{StateConfiguring, StateActive, true},
		{StateActive, StateConcluded, true},
		{StateActive, StateIdle, true},
		{StateConcluded, StateIdle, true},
		{StateActive, StateConfiguring, false},
		{StateConcluded, StateActive, false},
		{StateIdle, StateConcluded, false},
		{StateConfiguring, StateConcluded, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
	invalid := []Settings{
		{QuestionTimeLimit: 5, NumberOfPlayers: 2, QuestionCount: 5},
		{QuestionTimeLimit: 65, NumberOfPlayers: 2, QuestionCount: 5},
		{QuestionTimeLimit: 33, NumberOfPlayers: 2, QuestionCount: 5},
		{QuestionTimeLimit: 30, NumberOfPlayers: 1, QuestionCount: 5},
		{QuestionTimeLimit: 30, NumberOfPlayers: 5, QuestionCount: 5},
		{QuestionTimeLimit: 30, NumberOfPlayers: 2, QuestionCount: 0},
	}
	for _, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
			t.Fatalf("%+v: expected invalid settings, got %v", s, err)
		}
	}
}

func TestOptionalJSON(t *testing.T) {
	p := Participant{ID: "player2", DisplayName: "Balbes"}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["lastAnswer"] != nil || decoded["lastEvaluation"] != nil {
		t.Fatalf("absent optionals must encode as null: %s", data)
	}

	var progress OpponentProgress
	if err := json.Unmarshal([]byte(`{"score":2,"questionsAnswered":3,"lastAnswer":"median"}`), &progress); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if answer, ok := progress.LastAnswer.Get(); !ok || answer != "median" {
		t.Fatalf("expected present last answer, got %q %v", answer, ok)
	}
	if progress.LastEvaluation.Present() {
		t.Fatalf("missing field must stay absent")
	}
	if got := progress.LastEvaluation.OrElse(Evaluation{Feedback: "none"}); got.Feedback != "none" {
		t.Fatalf("unexpected fallback %+v", got)
	}
}

func TestCountdownProgress(t *testing.T) {
	if got := (Countdown{Remaining: 15}).Progress(30); got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
	if got := (Countdown{Remaining: 15}).Progress(0); got != 0 {
		t.Fatalf("expected 0 for empty budget, got %v", got)
	}
}
