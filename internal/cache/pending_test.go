package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/studyloop-backend/internal/mcq"
)

func TestMemoryPendingBatchCache(t *testing.T) {
	c := NewMemoryPendingBatchCache(time.Minute)
	ctx := context.Background()
	userID := uuid.New()
	topicID := uuid.New()

	if _, err := c.Get(ctx, userID, topicID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty cache, got %v", err)
	}

	batch := mcq.Batch{
		Questions: []mcq.Question{{
			Question:      "Q?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
			COTag:         "CO1",
		}},
		Requested: 1,
		Generated: 1,
	}
	if err := c.Put(ctx, userID, topicID, batch); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get(ctx, userID, topicID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].COTag != "CO1" {
		t.Fatalf("unexpected batch: %+v", got)
	}

	// Scoped per user: another faculty member must not see the draft.
	if _, err := c.Get(ctx, uuid.New(), topicID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("batch leaked across users: %v", err)
	}

	if err := c.Delete(ctx, userID, topicID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, userID, topicID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryPendingBatchCacheExpiry(t *testing.T) {
	c := NewMemoryPendingBatchCache(10 * time.Millisecond)
	ctx := context.Background()
	userID := uuid.New()
	topicID := uuid.New()

	if err := c.Put(ctx, userID, topicID, mcq.Batch{Requested: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := c.Get(ctx, userID, topicID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
