package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSplitTextRejectsDegenerateWindows(t *testing.T) {
	docID := uuid.New()
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"negative overlap", 100, -1},
		{"zero size", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitText("some text", tt.chunkSize, tt.overlap, docID)
			if !errors.Is(err, ErrInvalidChunking) {
				t.Errorf("want ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestSplitTextWindows(t *testing.T) {
	docID := uuid.New()
	text := strings.Repeat("abcdefghij", 10) // 100 bytes

	chunks, err := SplitText(text, 40, 10, docID)
	if err != nil {
		t.Fatalf("SplitText: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.DocumentID != docID {
			t.Errorf("chunk %d lost document id", i)
		}
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if len(ch.Text) > 40 {
			t.Errorf("chunk %d longer than window: %d", i, len(ch.Text))
		}
	}
	// Step is size-overlap, so consecutive chunks share the overlap region.
	if chunks[1].Start != chunks[0].Start+30 {
		t.Errorf("second chunk starts at %d, want %d", chunks[1].Start, chunks[0].Start+30)
	}
	last := chunks[len(chunks)-1]
	if last.End != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.End, len(text))
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	chunks, err := SplitText("   \n\t  ", 100, 10, uuid.New())
	if err != nil {
		t.Fatalf("SplitText: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestSplitTextSingleWindow(t *testing.T) {
	chunks, err := SplitText("short", 100, 10, uuid.New())
	if err != nil {
		t.Fatalf("SplitText: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "short" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText([]byte("hello\n\n  world\t!"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "hello world !" {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestExtractTextBadPDF(t *testing.T) {
	// Carries the PDF magic but no valid xref table.
	if _, err := ExtractText([]byte("%PDF-1.7 garbage")); err == nil {
		t.Error("expected error for truncated pdf")
	}
}
