package domain

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not valid in the current lifecycle state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrNotActive is returned by match operations issued outside the Active state.
	ErrNotActive = errors.New("match is not active")
	// ErrAlreadyAnswered indicates the local participant already answered the current question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrSubmissionInFlight indicates another submission has not completed yet.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrLoading indicates the match is still loading questions.
	ErrLoading = errors.New("match is loading")
	// ErrInvalidSettings indicates settings outside the allowed ranges.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrHistoryIndex indicates a review operation referenced a missing history entry.
	ErrHistoryIndex = errors.New("history entry not found")
	// ErrQuestionNotFound indicates the question bank has nothing for a topic.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProgressNotFound indicates no progress has been published for a participant.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrServiceUnavailable wraps failures talking to the scoring service.
	ErrServiceUnavailable = errors.New("scoring service unavailable")
)
