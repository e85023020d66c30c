package entity

import "errors"

// Domain errors for the learning engine and related aggregates.
var (
	ErrWordNotFound     = errors.New("word not found")
	ErrInvalidWord      = errors.New("invalid word")
	ErrDuplicateWord    = errors.New("word already exists")
	ErrImportInProgress = errors.New("catalog import already in progress")

	ErrLearnerNotFound   = errors.New("learner not found")
	ErrInvalidLearner    = errors.New("invalid learner")
	ErrDuplicateLearner  = errors.New("learner already exists")
	ErrForbidden         = errors.New("operation not allowed for this role")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidLearnerRef = errors.New("invalid learner reference")

	ErrEmptyAnswer   = errors.New("answer must not be empty")
	ErrInvalidPool   = errors.New("invalid pool")
	ErrInvalidPeriod = errors.New("invalid period for pool")
	ErrInvalidMonth  = errors.New("invalid year or month")
	ErrInvalidSort   = errors.New("invalid sort key or order")
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrSubmissionConflict is returned when a submission id is reused for a
	// different word or pool.
	ErrSubmissionConflict = errors.New("submission id already used for another answer")

	// ErrTransient marks storage failures that left no state behind and may be retried.
	ErrTransient = errors.New("transient storage failure")
)
