// Package notifications publishes domain events over Redis and relays them
// to websocket subscribers.
package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventArticleCreated = "article.created"
	EventArticleUpdated = "article.updated"
	EventArticleDeleted = "article.deleted"
	EventCommentCreated = "comment.created"
	EventCommentUpdated = "comment.updated"
	EventCommentDeleted = "comment.deleted"
)

// Event describes a completed mutation. ArticleID is set for comment events.
type Event struct {
	Type       string     `json:"type"`
	ResourceID uuid.UUID  `json:"resourceId"`
	ArticleID  *uuid.UUID `json:"articleId,omitempty"`
	Actor      string     `json:"actor,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

func NewArticleEvent(eventType string, id uuid.UUID, actor string) Event {
	return Event{
		Type:       eventType,
		ResourceID: id,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

func NewCommentEvent(eventType string, commentID, articleID uuid.UUID, actor string) Event {
	return Event{
		Type:       eventType,
		ResourceID: commentID,
		ArticleID:  &articleID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode returns the wire form sent to Redis and websocket clients.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(b), nil
}

// DecodeEvent parses the wire form produced by Encode.
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}
