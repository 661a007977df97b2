package volcspeech

import (
	"bufio"
	"io"
	"strings"

	"google.golang.org/api/iterator"
)

// Chunk bounds used by the synthesis session loop. The maximum keeps a
// single task frame within the remote service's input buffer; the
// minimum avoids flooding it with fragments.
const (
	DefaultMaxChunkRunes = 60
	DefaultMinChunkRunes = 12
)

// isBoundaryRune reports whether r ends a sentence or clause, in
// either full-width or ASCII form.
func isBoundaryRune(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '，', '、',
		'.', '!', '?', ';', ',', '\n':
		return true
	}
	return false
}

// SplitText segments text into bounded chunks along punctuation
// boundaries.
//
// A split is forced when the accumulated rune count reaches maxRunes,
// or at a boundary rune once minRunes have accumulated. Each chunk is
// trimmed of surrounding whitespace and guaranteed non-empty; a
// non-empty input always yields at least one chunk.
func SplitText(text string, maxRunes, minRunes int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxRunes <= 0 {
		maxRunes = DefaultMaxChunkRunes
	}
	if minRunes <= 0 {
		minRunes = DefaultMinChunkRunes
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, r := range trimmed {
		current.WriteRune(r)
		currentLen++

		if currentLen >= maxRunes || (isBoundaryRune(r) && currentLen >= minRunes) {
			if chunk := strings.TrimSpace(current.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()
			currentLen = 0
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		chunks = append(chunks, rest)
	}

	if len(chunks) == 0 {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// ChunkIterator yields synthesis chunks from a text stream using the
// same bounds and boundary set as SplitText. Next returns
// iterator.Done after the final chunk.
type ChunkIterator struct {
	r        *bufio.Reader
	maxRunes int
	minRunes int

	current strings.Builder
	length  int
	eof     bool
}

// ChunkReader wraps r in a streaming chunker. maxRunes and minRunes
// fall back to the session defaults when zero.
func ChunkReader(r io.Reader, maxRunes, minRunes int) *ChunkIterator {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxChunkRunes
	}
	if minRunes <= 0 {
		minRunes = DefaultMinChunkRunes
	}
	return &ChunkIterator{
		r:        bufio.NewReader(r),
		maxRunes: maxRunes,
		minRunes: minRunes,
	}
}

// Next returns the next non-empty chunk, or iterator.Done.
func (it *ChunkIterator) Next() (string, error) {
	for !it.eof {
		r, _, err := it.r.ReadRune()
		if err == io.EOF {
			it.eof = true
			break
		}
		if err != nil {
			return "", err
		}

		it.current.WriteRune(r)
		it.length++

		if it.length >= it.maxRunes || (isBoundaryRune(r) && it.length >= it.minRunes) {
			chunk := strings.TrimSpace(it.current.String())
			it.current.Reset()
			it.length = 0
			if chunk != "" {
				return chunk, nil
			}
		}
	}

	if rest := strings.TrimSpace(it.current.String()); rest != "" {
		it.current.Reset()
		it.length = 0
		return rest, nil
	}
	return "", iterator.Done
}
