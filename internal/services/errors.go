package services

import "errors"

var (
	// ErrInvalidInput is returned when request fields fail basic validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound is returned when the actor's user row does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when registration reuses an email.
	ErrDuplicateUser = errors.New("user already registered for email")
	// ErrCourseNotFound is returned when the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrTopicNotFound is returned when the referenced topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrDuplicateTopic is returned when a topic upload collides with an
	// existing (course, topic number) or (course, file name) pair.
	ErrDuplicateTopic = errors.New("duplicate topic for course")
	// ErrTopicLimit is returned when a course already holds its maximum
	// number of topics.
	ErrTopicLimit = errors.New("course topic limit reached")
	// ErrIndexNotFound is returned when question generation is requested for
	// a topic whose document index was never built.
	ErrIndexNotFound = errors.New("document index not found")
	// ErrNoRelevantContent is returned when retrieval finds nothing for the
	// requested topics.
	ErrNoRelevantContent = errors.New("no relevant content found for the given topics")
	// ErrNoPendingBatch is returned when a save request references a
	// generation batch that is absent or expired.
	ErrNoPendingBatch = errors.New("no pending question batch to save")
	// ErrAttemptNotFound is returned when no attempt matches the given
	// attempt, student and topic.
	ErrAttemptNotFound = errors.New("no active quiz attempt found")
	// ErrAttemptExpired is returned when a submission arrives after the
	// attempt's end time.
	ErrAttemptExpired = errors.New("time expired, submission rejected")
	// ErrAttemptLimit is returned when the student has used up the attempt
	// allowance for a topic.
	ErrAttemptLimit = errors.New("attempt limit reached for topic")
	// ErrNoQuestions is returned when a quiz is started on a topic with no
	// persisted questions.
	ErrNoQuestions = errors.New("topic has no questions")
	// ErrForbidden is returned when the actor's role does not permit the
	// operation.
	ErrForbidden = errors.New("operation not permitted for role")
)
