package service

import "errors"

var (
	// ErrActiveAttemptExists: at most one in_progress attempt per (exam, user).
	ErrActiveAttemptExists = errors.New("an attempt for this exam is already in progress")
	// ErrAttemptCompleted guards the terminal transition: a completed attempt
	// is never re-scored.
	ErrAttemptCompleted = errors.New("attempt is already completed")
	// ErrNotAttemptOwner: the attempt belongs to a different user.
	ErrNotAttemptOwner = errors.New("attempt belongs to another user")
	// ErrExamNotTakeable: the exam is not published.
	ErrExamNotTakeable = errors.New("exam is not open for attempts")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)
