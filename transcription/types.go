package transcription

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Word is a single recognized word with offsets relative to the audio start.
type Word struct {
	Text  string        `json:"word"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Alternative is one candidate transcription of a segment.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

// Segment is a consecutive portion of audio. Alternatives are ordered by
// decreasing confidence; only the first is used downstream.
type Segment struct {
	Alternatives []Alternative `json:"alternatives"`
	ChannelTag   int           `json:"channel_tag,omitempty"`
	LanguageCode string        `json:"language_code,omitempty"`
}

// Result is the terminal output of a recognition.
type Result struct {
	Segments []Segment `json:"segments"`
	// Raw is the backend's response document as received, when available.
	Raw []byte `json:"-"`
}

// RawJSON returns the backend response document, or the Result itself when
// the backend did not supply one.
func (r *Result) RawJSON() any {
	if len(r.Raw) > 0 {
		return json.RawMessage(r.Raw)
	}
	return r
}

// Top returns the segment's best alternative, or nil if it has none.
func (s Segment) Top() *Alternative {
	if len(s.Alternatives) == 0 {
		return nil
	}
	return &s.Alternatives[0]
}

// Words flattens the top alternative of every segment into one ordered stream.
func (r *Result) Words() []Word {
	if r == nil {
		return nil
	}
	var words []Word
	for _, seg := range r.Segments {
		if top := seg.Top(); top != nil {
			words = append(words, top.Words...)
		}
	}
	return words
}

// Transcript joins the trimmed top-alternative transcripts with single spaces.
func (r *Result) Transcript() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		top := seg.Top()
		if top == nil {
			continue
		}
		if t := strings.TrimSpace(top.Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// RecognitionConfig is fixed for the lifetime of one recognition.
type RecognitionConfig struct {
	Encoding                   AudioEncoding
	LanguageCode               string
	AudioChannelCount          int
	EnableAutomaticPunctuation bool
	EnableWordTimeOffsets      bool
}

// Recognizer runs a batch recognition against audio already staged at uri
// and blocks until the backend reports a terminal result.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, uri string, cfg RecognitionConfig) (*Result, error)
}
