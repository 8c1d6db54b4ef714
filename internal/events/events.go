package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the service.
const (
	EventUserSignedUp      = "user.signed_up"
	EventUserActivated     = "user.activated"
	EventPasswordResetSent = "user.password_reset_requested"
	EventPasswordChanged   = "user.password_changed"
	EventQuestionCreated   = "question.created"
	EventQuestionUpdated   = "question.updated"
	EventQuestionDeleted   = "question.deleted"
	EventExamCreated       = "exam.created"
)

const (
	eventSource  = "examprep-service"
	eventVersion = "1.0"
)

// Event is the envelope written to the broker for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps an envelope around the given payload.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// UserEvent is the payload for user lifecycle events.
type UserEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// QuestionEvent is the payload for question mutations.
type QuestionEvent struct {
	QuestionID uint   `json:"question_id"`
	SubjectID  *uint  `json:"subject_id,omitempty"`
	ActorID    string `json:"actor_id"`
}

// ExamEvent is the payload for exam mutations.
type ExamEvent struct {
	ExamID    uint   `json:"exam_id"`
	SubjectID *uint  `json:"subject_id,omitempty"`
	ActorID   string `json:"actor_id"`
}
