package app

import "errors"

var (
	// ErrQuestionRequired and ErrUserIDRequired flag malformed requests.
	ErrQuestionRequired = errors.New("question required")
	ErrUserIDRequired   = errors.New("user id required")

	// ErrNoHistory indicates the user has no recorded turns.
	ErrNoHistory = errors.New("no chat history for user")

	// ErrUpstream wraps answer engine failures.
	ErrUpstream = errors.New("answer engine failure")

	// ErrPersistence wraps chat store failures.
	ErrPersistence = errors.New("chat store failure")
)
