// File path: internal/splitter/splitter.go
package splitter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/bidsmith/rfpcopilot/internal/common"
)

// The cl100k_base encoding is shared by every pipeline stage that consumes
// chunk boundaries, so identical input always produces identical chunks.
const encodingName = "cl100k_base"

// ErrOverlapTooLarge reports an overlap that would prevent the split window
// from ever advancing. This is a configuration error and is never corrected
// silently.
var ErrOverlapTooLarge = errors.New("splitter: overlap must be smaller than max tokens")

var (
	sharedEnc     *tiktoken.Tiktoken
	sharedEncErr  error
	sharedEncOnce sync.Once
)

func sharedEncoding() (*tiktoken.Tiktoken, error) {
	sharedEncOnce.Do(func() {
		sharedEnc, sharedEncErr = tiktoken.GetEncoding(encodingName)
	})
	return sharedEnc, sharedEncErr
}

// CountTokens reports the token count of text under the pipeline encoding.
// When the encoding cannot be loaded it falls back to a rough four
// characters per token estimate rather than failing.
func CountTokens(text string) int {
	enc, err := sharedEncoding()
	if err != nil {
		common.Logger().Error("splitter: token counting unavailable, estimating", "error", err)
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Chunk is a contiguous token range of a source text together with its
// decoded form. Start and End are token offsets into the source sequence.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Splitter cuts arbitrarily long text into bounded, overlapping chunks for
// consumers with an input-size ceiling.
type Splitter struct {
	maxTokens int
	overlap   int
	enc       *tiktoken.Tiktoken
}

// New constructs a Splitter. The overlap must be smaller than maxTokens or
// the window would never terminate.
func New(maxTokens, overlap int) (*Splitter, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("splitter: max tokens must be positive, got %d", maxTokens)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("splitter: overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxTokens {
		return nil, fmt.Errorf("%w: overlap %d, max %d", ErrOverlapTooLarge, overlap, maxTokens)
	}
	enc, err := sharedEncoding()
	if err != nil {
		return nil, fmt.Errorf("splitter: load %s encoding: %w", encodingName, err)
	}
	return &Splitter{maxTokens: maxTokens, overlap: overlap, enc: enc}, nil
}

// MaxTokens reports the configured chunk ceiling.
func (s *Splitter) MaxTokens() int { return s.maxTokens }

// Count reports the token count of text under the splitter's encoding.
func (s *Splitter) Count(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}

// Split produces an ordered sequence of chunks covering text. Text that fits
// within the budget is returned untouched as a single chunk. Otherwise a
// window of maxTokens advances by maxTokens-overlap per step; every
// non-final chunk holds exactly maxTokens tokens and adjacent chunks share
// the configured overlap.
func (s *Splitter) Split(text string) []Chunk {
	tokens := s.enc.Encode(text, nil, nil)
	if len(tokens) <= s.maxTokens {
		return []Chunk{{Text: text, Start: 0, End: len(tokens)}}
	}

	logger := common.Logger()
	logger.Info("splitter: splitting oversized text", "tokens", len(tokens), "max", s.maxTokens, "overlap", s.overlap)

	step := s.maxTokens - s.overlap
	var chunks []Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + s.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, Chunk{
			Text:  s.enc.Decode(tokens[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(tokens) {
			break
		}
	}
	logger.Info("splitter: split complete", "chunks", len(chunks))
	return chunks
}

// Texts returns just the decoded text of each chunk, in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, chunk.Text)
	}
	return out
}
