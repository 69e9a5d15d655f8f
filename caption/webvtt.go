package caption

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kbukum/transcribe-worker/transcription"
)

const (
	// Header is the first line of every WebVTT document.
	Header = "WEBVTT"
	// MaxCueLength is the character budget of a single cue.
	MaxCueLength = 42
	// EndGuard is subtracted from a cue's end so adjacent cues never touch.
	EndGuard = time.Millisecond
)

// Cue is one timed caption entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Document is an ordered sequence of cues.
type Document struct {
	Cues []Cue
}

// Format renders result as a WebVTT document.
func Format(result *transcription.Result) string {
	return Build(result).WebVTT()
}

// Build packs the words of result into cues.
func Build(result *transcription.Result) Document {
	var (
		doc   Document
		text  string
		first transcription.Word
		last  transcription.Word
	)

	flush := func() {
		end := last.End - EndGuard
		if end < first.Start {
			end = first.Start
		}
		doc.Cues = append(doc.Cues, Cue{
			Index: len(doc.Cues),
			Start: first.Start,
			End:   end,
			Text:  text,
		})
	}

	for _, w := range result.Words() {
		if text == "" {
			text, first, last = w.Text, w, w
			continue
		}
		candidate := text + " " + w.Text
		if endsSentence(text) || utf8.RuneCountInString(candidate) > MaxCueLength {
			flush()
			text, first, last = w.Text, w, w
			continue
		}
		text, last = candidate, w
	}
	if text != "" {
		flush()
	}
	return doc
}

// WebVTT renders the document. An empty document renders as the bare header.
func (d Document) WebVTT() string {
	var b strings.Builder
	b.WriteString(Header)
	for _, c := range d.Cues {
		b.WriteString("\n\n")
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteByte('\n')
		b.WriteString(Timestamp(c.Start))
		b.WriteString(" --> ")
		b.WriteString(Timestamp(c.End))
		b.WriteByte('\n')
		b.WriteString(c.Text)
	}
	return b.String()
}

// Timestamp formats d as HH:MM:SS.mmm. Hours are not wrapped at 24.
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}

func endsSentence(text string) bool {
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
