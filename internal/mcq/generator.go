package mcq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studyloop/studyloop-backend/internal/logger"
	"github.com/studyloop/studyloop-backend/internal/outcomes"
)

var (
	// ErrInvalidRequest covers caller mistakes: empty topics or tags, or a
	// question count outside the allowed range.
	ErrInvalidRequest = errors.New("invalid question generation request")
	// ErrBackend covers generation backend failures (transport, refusal).
	ErrBackend = errors.New("question generation backend failure")
	// ErrBadPayload covers backend output that is not usable JSON, or that
	// yields zero well-formed questions.
	ErrBadPayload = errors.New("question generation returned unusable payload")
)

const (
	MinQuestions = 1
	MaxQuestions = 20
	optionCount  = 4
)

// Question is a generated multiple-choice question that has passed shape
// validation.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	COTag         string   `json:"co_tag"`
}

// Batch is the outcome of one generation call. Generated may be fewer than
// Requested when individual items fail validation and get dropped.
type Batch struct {
	Questions []Question
	Requested int
	Generated int
	Dropped   int
}

// Result is what a generation backend returns: either an already-decoded
// object (structured output mode) or raw text still needing fence stripping
// and JSON parsing.
type Result struct {
	Structured map[string]any
	Raw        string
}

// Backend produces the question payload for a fully rendered prompt pair.
type Backend interface {
	GenerateQuestions(ctx context.Context, system, user string, schema map[string]any) (Result, error)
}

type Generator struct {
	log      *logger.Logger
	backend  Backend
	outcomes outcomes.Set
}

func NewGenerator(log *logger.Logger, backend Backend, set outcomes.Set) (*Generator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	if len(set) == 0 {
		set = outcomes.Default()
	}
	return &Generator{
		log:      log.With("service", "MCQGenerator"),
		backend:  backend,
		outcomes: set,
	}, nil
}

// Generate produces up to count questions grounded in context and scoped to
// topics, each tagged with one of coTags. Malformed items from the backend
// are dropped rather than failing the whole batch.
func (g *Generator) Generate(ctx context.Context, topics []string, material string, count int, coTags []string) (Batch, error) {
	var batch Batch

	topicList := cleanList(topics)
	if len(topicList) == 0 {
		return batch, fmt.Errorf("%w: no valid topics provided", ErrInvalidRequest)
	}
	if count < MinQuestions || count > MaxQuestions {
		return batch, fmt.Errorf("%w: number of questions must be between %d and %d", ErrInvalidRequest, MinQuestions, MaxQuestions)
	}
	tags := g.outcomes.Filter(coTags)
	if len(tags) == 0 {
		return batch, fmt.Errorf("%w: no valid CO tags provided", ErrInvalidRequest)
	}

	system := g.renderSystemPrompt(count, tags)
	user := renderUserPrompt(topicList, count, material)

	res, err := g.backend.GenerateQuestions(ctx, system, user, questionSchema())
	if err != nil {
		return batch, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	payload := res.Structured
	if payload == nil {
		payload, err = decodeRawPayload(res.Raw)
		if err != nil {
			return batch, err
		}
	}

	rawItems, ok := payload["questions"].([]any)
	if !ok || len(rawItems) == 0 {
		return batch, fmt.Errorf("%w: missing questions array", ErrBadPayload)
	}

	allowed := map[string]bool{}
	for _, t := range tags {
		allowed[t] = true
	}

	batch.Requested = count
	for i, item := range rawItems {
		q, ok := normalizeQuestion(item, allowed)
		if !ok {
			batch.Dropped++
			g.log.Warn("Dropping malformed generated question", "index", i)
			continue
		}
		batch.Questions = append(batch.Questions, q)
	}
	batch.Generated = len(batch.Questions)

	if batch.Generated == 0 {
		return batch, fmt.Errorf("%w: no well-formed questions in payload", ErrBadPayload)
	}

	g.log.Info("Generated question batch",
		"requested", batch.Requested,
		"generated", batch.Generated,
		"dropped", batch.Dropped,
	)
	return batch, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (g *Generator) renderSystemPrompt(count int, tags []string) string {
	return fmt.Sprintf(`You are an expert exam question creator.
Your task is to generate exactly %d multiple-choice questions (MCQs)
strictly based on the provided study material and topics.

Rules:
- Every question must relate directly to one of the provided topics.
- Exactly 4 answer options per question.
- Only one correct answer which MUST match one of the options.
- No invented facts; questions must be based only on given context.

CO TAGGING RULES:
- Each question MUST include a 'co_tag'
- Allowed tags: %s
- Use the definitions below:

%s

--- OUTPUT FORMAT ---
Return ONLY valid JSON. No markdown, no code fences, no explanations.

Output format:

{
  "questions": [
    {
      "question": "string",
      "options": ["A", "B", "C", "D"],
      "correct_answer": "string",
      "co_tag": "%s"
    }
  ]
}`, count, strings.Join(tags, ", "), g.outcomes.FormatDefinitions(tags), strings.Join(tags, "|"))
}

func renderUserPrompt(topics []string, count int, material string) string {
	return fmt.Sprintf("Topics to Cover: %s\nNumber of Questions: %d\n\nStudy Material:\n%s",
		strings.Join(topics, ", "), count, material)
}

// questionSchema is the strict json_schema handed to structured-output
// backends. Raw-text backends may ignore it.
func questionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"correct_answer": map[string]any{"type": "string"},
						"co_tag":         map[string]any{"type": "string"},
					},
					"required":             []string{"question", "options", "correct_answer", "co_tag"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"questions"},
		"additionalProperties": false,
	}
}

// decodeRawPayload strips markdown code fences some models wrap their output
// in, then parses the remainder as a JSON object.
func decodeRawPayload(raw string) (map[string]any, error) {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimSpace(strings.TrimPrefix(clean, "```json"))
	}
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimSpace(strings.TrimPrefix(clean, "```"))
	}
	if strings.HasSuffix(clean, "```") {
		clean = strings.TrimSpace(strings.TrimSuffix(clean, "```"))
	}

	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrBadPayload)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrBadPayload, err)
	}
	return payload, nil
}

// normalizeQuestion validates one raw item: exactly four non-empty options,
// a correct answer that matches one of them (case-insensitive after
// trimming), and a CO tag from the allowed set.
func normalizeQuestion(item any, allowedTags map[string]bool) (Question, bool) {
	var q Question

	obj, ok := item.(map[string]any)
	if !ok {
		return q, false
	}

	text, _ := obj["question"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return q, false
	}

	rawOpts, ok := obj["options"].([]any)
	if !ok || len(rawOpts) != optionCount {
		return q, false
	}
	opts := make([]string, 0, optionCount)
	for _, o := range rawOpts {
		s, _ := o.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			return q, false
		}
		opts = append(opts, s)
	}

	answer, _ := obj["correct_answer"].(string)
	answer = strings.TrimSpace(answer)
	matched := ""
	for _, o := range opts {
		if strings.EqualFold(o, answer) {
			matched = o
			break
		}
	}
	if matched == "" {
		return q, false
	}

	tag, _ := obj["co_tag"].(string)
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !allowedTags[tag] {
		return q, false
	}

	q.Question = text
	q.Options = opts
	q.CorrectAnswer = matched
	q.COTag = tag
	return q, true
}
