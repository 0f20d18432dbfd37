package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transcript is the word-timed lyrics document produced by an alignment.
type Transcript struct {
	Lines []Line `json:"lines"`
}

// Line is a lyric line of timed words.
type Line struct {
	Words []Word `json:"words"`
}

// Word is a single timed token; Start and End are seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ParseTranscript decodes an alignment result document.
func ParseTranscript(data []byte) (*Transcript, error) {
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return &tr, nil
}

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Start is the first word's start, or 0 for an empty line.
func (l Line) Start() float64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[0].Start
}

// End is the last word's end, or 0 for an empty line.
func (l Line) End() float64 {
	if len(l.Words) == 0 {
		return 0
	}
	return l.Words[len(l.Words)-1].End
}

// WordCount counts words across all lines.
func (t *Transcript) WordCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, l := range t.Lines {
		n += len(l.Words)
	}
	return n
}

// Duration is the end time of the last non-empty line.
func (t *Transcript) Duration() float64 {
	if t == nil {
		return 0
	}
	for i := len(t.Lines) - 1; i >= 0; i-- {
		if len(t.Lines[i].Words) > 0 {
			return t.Lines[i].End()
		}
	}
	return 0
}
