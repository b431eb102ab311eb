package repos

import (
	"context"
	"testing"

	"github.com/studyloop/studyloop-backend/internal/dbctx"
	"github.com/studyloop/studyloop-backend/internal/repos/testutil"
	"github.com/studyloop/studyloop-backend/internal/types"
)

func TestAnswerRepoReplaceWholesale(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAnswerRepo(db, testutil.Logger(t))

	faculty := testutil.SeedUser(t, ctx, tx, "answerrepo-f@example.com", "faculty")
	student := testutil.SeedUser(t, ctx, tx, "answerrepo-s@example.com", "student")
	course := testutil.SeedCourse(t, ctx, tx, faculty.ID)
	topic := testutil.SeedTopic(t, ctx, tx, course.ID, faculty.ID, 1)
	q := testutil.SeedQuestion(t, ctx, tx, topic.ID, faculty.ID, "CO1")
	attempt := testutil.SeedAttempt(t, ctx, tx, student.ID, topic.ID)

	first := []*types.StudentAnswer{{
		AttemptID:     attempt.ID,
		QuestionID:    q.ID,
		QuestionText:  q.QuestionText,
		StudentAnswer: "b",
		CorrectAnswer: q.CorrectAnswer,
		COTag:         q.COTag,
	}}
	if _, err := repo.Create(dbc, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Resubmission replaces rows wholesale: delete then insert.
	if err := repo.DeleteByAttempt(dbc, attempt.ID); err != nil {
		t.Fatalf("DeleteByAttempt: %v", err)
	}
	second := []*types.StudentAnswer{{
		AttemptID:     attempt.ID,
		QuestionID:    q.ID,
		QuestionText:  q.QuestionText,
		StudentAnswer: "a",
		CorrectAnswer: q.CorrectAnswer,
		COTag:         q.COTag,
	}}
	if _, err := repo.Create(dbc, second); err != nil {
		t.Fatalf("Create after delete: %v", err)
	}

	rows, err := repo.ListByAttempt(dbc, attempt.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByAttempt: err=%v len=%d", err, len(rows))
	}
	if rows[0].StudentAnswer != "a" {
		t.Fatalf("expected replaced answer, got %q", rows[0].StudentAnswer)
	}
}
