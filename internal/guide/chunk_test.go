package guide

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkEmpty(t *testing.T) {
	t.Parallel()

	if got := Chunk("", 1500, 200); got != nil {
		t.Fatalf("expected nil chunks for empty text, got %d", len(got))
	}
	if got := Chunk("   \n\t  ", 1500, 200); got != nil {
		t.Fatalf("expected nil chunks for whitespace text, got %d", len(got))
	}
}

func TestChunkShortText(t *testing.T) {
	t.Parallel()

	text := "a short guide"
	chunks := Chunk(text, 1500, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("chunk mismatch: %q", chunks[0])
	}
}

func TestChunkOverlap(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 2500)
	chunks := Chunk(text, 1500, 200)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1500 {
		t.Fatalf("first chunk length = %d, want 1500", len(chunks[0]))
	}
	// Second chunk starts at 1300, so it covers 1200 characters.
	if len(chunks[1]) != 1200 {
		t.Fatalf("second chunk length = %d, want 1200", len(chunks[1]))
	}
}

func TestChunkCoversAllText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("abcdefghij", 500)
	chunks := Chunk(text, 1500, 200)

	// Reassembling without the overlapping prefixes must reproduce the text.
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c)
			continue
		}
		sb.WriteString(c[200:])
	}
	if sb.String() != text {
		t.Fatal("reassembled chunks do not match original text")
	}
}

func TestChunkMultiByteText(t *testing.T) {
	t.Parallel()

	// Vietnamese text is multi-byte; boundaries must land on whole runes.
	text := strings.Repeat("Cố đô Huế ", 5)
	chunks := Chunk(text, 10, 2)

	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if utf8.RuneCountInString(c) > 10 {
			t.Fatalf("chunk %d has %d runes, want at most 10", i, utf8.RuneCountInString(c))
		}
	}

	// Reassembling without the overlapping prefixes must reproduce the text.
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c)
			continue
		}
		sb.WriteString(string([]rune(c)[2:]))
	}
	if sb.String() != strings.TrimSpace(text) {
		t.Fatal("reassembled chunks do not match original text")
	}
}

func TestChunkDefaults(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("y", 2000)
	chunks := Chunk(text, 0, -1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks with defaults, got %d", len(chunks))
	}
	if len(chunks[0]) != DefaultChunkSize {
		t.Fatalf("first chunk length = %d, want %d", len(chunks[0]), DefaultChunkSize)
	}
}
