package mcq

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/outcomes"
)

type fakeBackend struct {
	result     Result
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeBackend) GenerateQuestions(_ context.Context, system, user string, _ map[string]any) (Result, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return Result{}, f.err
	}
	return f.result, nil
}

func newTestGenerator(t *testing.T, backend Backend) *Generator {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	gen, err := NewGenerator(log, backend, outcomes.Default())
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	return gen
}

func validItem(question, answer, tag string) map[string]any {
	return map[string]any{
		"question":       question,
		"options":        []any{"Alpha", "Beta", "Gamma", answer},
		"correct_answer": answer,
		"co_tag":         tag,
	}
}

func TestGenerateValidBatch(t *testing.T) {
	backend := &fakeBackend{result: Result{Structured: map[string]any{
		"questions": []any{
			validItem("What is a CPU?", "Delta", "CO1"),
			validItem("What is RAM?", "Epsilon", "CO2"),
		},
	}}}
	gen := newTestGenerator(t, backend)

	batch, err := gen.Generate(context.Background(), []string{"hardware"}, "study material", 2, []string{"co1", "CO2"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if batch.Requested != 2 || batch.Generated != 2 || batch.Dropped != 0 {
		t.Fatalf("unexpected batch counts: %+v", batch)
	}
	if batch.Questions[0].COTag != "CO1" {
		t.Fatalf("tag not normalized: %q", batch.Questions[0].COTag)
	}
	if !strings.Contains(backend.lastSystem, "CO1, CO2") {
		t.Fatalf("allowed tags missing from system prompt:\n%s", backend.lastSystem)
	}
	if !strings.Contains(backend.lastSystem, "Explain fundamental principles") {
		t.Fatalf("CO definitions missing from system prompt")
	}
	if !strings.Contains(backend.lastUser, "Topics to Cover: hardware") {
		t.Fatalf("topic list missing from user prompt:\n%s", backend.lastUser)
	}
}

func TestGenerateValidation(t *testing.T) {
	gen := newTestGenerator(t, &fakeBackend{})
	ctx := context.Background()

	cases := []struct {
		name   string
		topics []string
		count  int
		tags   []string
	}{
		{"no topics", []string{"  ", ""}, 5, []string{"CO1"}},
		{"count too low", []string{"t"}, 0, []string{"CO1"}},
		{"count too high", []string{"t"}, 21, []string{"CO1"}},
		{"no tags", []string{"t"}, 5, nil},
		{"unknown tags only", []string{"t"}, 5, []string{"CO9"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gen.Generate(ctx, tc.topics, "material", tc.count, tc.tags)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestGenerateBackendFailure(t *testing.T) {
	gen := newTestGenerator(t, &fakeBackend{err: errors.New("upstream down")})

	_, err := gen.Generate(context.Background(), []string{"t"}, "m", 3, []string{"CO1"})
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"questions\":[{\"question\":\"Q?\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"correct_answer\":\"b\",\"co_tag\":\"CO3\"}]}\n```"
	gen := newTestGenerator(t, &fakeBackend{result: Result{Raw: raw}})

	batch, err := gen.Generate(context.Background(), []string{"t"}, "m", 1, []string{"CO3"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if batch.Generated != 1 {
		t.Fatalf("expected 1 question, got %d", batch.Generated)
	}
	if batch.Questions[0].CorrectAnswer != "b" {
		t.Fatalf("unexpected answer: %q", batch.Questions[0].CorrectAnswer)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	gen := newTestGenerator(t, &fakeBackend{result: Result{Raw: "sorry, I cannot do that"}})

	_, err := gen.Generate(context.Background(), []string{"t"}, "m", 1, []string{"CO1"})
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestGenerateDropsMalformedItems(t *testing.T) {
	backend := &fakeBackend{result: Result{Structured: map[string]any{
		"questions": []any{
			validItem("Keep me?", "Delta", "CO1"),
			map[string]any{ // three options
				"question":       "Too few options?",
				"options":        []any{"a", "b", "c"},
				"correct_answer": "a",
				"co_tag":         "CO1",
			},
			map[string]any{ // answer not among options
				"question":       "Mismatch?",
				"options":        []any{"a", "b", "c", "d"},
				"correct_answer": "e",
				"co_tag":         "CO1",
			},
			map[string]any{ // tag outside allowed set
				"question":       "Bad tag?",
				"options":        []any{"a", "b", "c", "d"},
				"correct_answer": "a",
				"co_tag":         "CO2",
			},
			map[string]any{ // empty question text
				"question":       "  ",
				"options":        []any{"a", "b", "c", "d"},
				"correct_answer": "a",
				"co_tag":         "CO1",
			},
		},
	}}}
	gen := newTestGenerator(t, backend)

	batch, err := gen.Generate(context.Background(), []string{"t"}, "m", 5, []string{"CO1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if batch.Generated != 1 || batch.Dropped != 4 {
		t.Fatalf("unexpected counts: generated=%d dropped=%d", batch.Generated, batch.Dropped)
	}
	if batch.Questions[0].Question != "Keep me?" {
		t.Fatalf("kept wrong question: %q", batch.Questions[0].Question)
	}
}

func TestGenerateAllMalformed(t *testing.T) {
	backend := &fakeBackend{result: Result{Structured: map[string]any{
		"questions": []any{
			map[string]any{"question": "x", "options": []any{"a"}, "correct_answer": "a", "co_tag": "CO1"},
		},
	}}}
	gen := newTestGenerator(t, backend)

	_, err := gen.Generate(context.Background(), []string{"t"}, "m", 1, []string{"CO1"})
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestCaseInsensitiveAnswerMatchCanonicalizes(t *testing.T) {
	backend := &fakeBackend{result: Result{Structured: map[string]any{
		"questions": []any{
			map[string]any{
				"question":       "Case?",
				"options":        []any{"Paris", "London", "Rome", "Berlin"},
				"correct_answer": "  paris ",
				"co_tag":         "co1",
			},
		},
	}}}
	gen := newTestGenerator(t, backend)

	batch, err := gen.Generate(context.Background(), []string{"t"}, "m", 1, []string{"CO1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if batch.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("answer not canonicalized to option text: %q", batch.Questions[0].CorrectAnswer)
	}
}
