package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidChunking guards against degenerate window parameters: an overlap
// at or above the chunk size would never advance through the text.
var ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 90
)

// Chunk is one bounded window of extracted document text. Every chunk carries
// the id of the document it came from so retrieval results keep provenance.
type Chunk struct {
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
}

// SplitText cuts text into windows of at most chunkSize bytes, each sharing
// overlap bytes with its neighbour. Empty windows are dropped.
func SplitText(text string, chunkSize, overlap int, documentID uuid.UUID) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: size %d overlap %d", ErrInvalidChunking, chunkSize, overlap)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []Chunk{}, nil
	}

	step := chunkSize - overlap
	out := []Chunk{}
	idx := 0
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			out = append(out, Chunk{
				DocumentID: documentID,
				Index:      idx,
				Text:       piece,
				Start:      start,
				End:        end,
			})
			idx++
		}
		if end == len(text) {
			break
		}
	}
	return out, nil
}

// SplitDocument extracts text from raw document bytes and chunks it.
func SplitDocument(raw []byte, chunkSize, overlap int, documentID uuid.UUID) ([]Chunk, error) {
	text, err := ExtractText(raw)
	if err != nil {
		return nil, err
	}
	return SplitText(text, chunkSize, overlap, documentID)
}
