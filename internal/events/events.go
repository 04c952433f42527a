// Package events provides the structured outcome records the simulation emits
// and the sink contract presentation layers implement to render them.
package events

import (
	"fmt"
	"log/slog"
)

// Kind classifies how a record should be presented.
type Kind uint8

const (
	KindInfo     Kind = iota // Neutral status line
	KindPositive             // Something went well
	KindNegative             // Something went badly
	KindEvent                // Notable incident
	KindPopup                // Needs the player's attention
)

// String returns the lowercase kind name used in logs and the journal.
func (k Kind) String() string {
	switch k {
	case KindPositive:
		return "pos"
	case KindNegative:
		return "neg"
	case KindEvent:
		return "event"
	case KindPopup:
		return "popup"
	default:
		return "info"
	}
}

// Record is a single thing that happened in the pub.
type Record struct {
	Week     int    `json:"week"`
	Day      int    `json:"day"`
	Round    int    `json:"round"`
	Kind     Kind   `json:"kind"`
	Category string `json:"category"` // "credit", "punter", "staff", "chaos", "night", "week", etc.
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
}

// Clock reports the time cursor stamped onto new records.
type Clock func() (week, day, round int)

// Log collects records in emission order until drained.
type Log struct {
	clock   Clock
	records []Record
}

// NewLog creates an empty log. A nil clock stamps zeroes.
func NewLog(clock Clock) *Log {
	return &Log{clock: clock}
}

func (l *Log) add(kind Kind, category, title, text string) {
	r := Record{Kind: kind, Category: category, Title: title, Text: text}
	if l.clock != nil {
		r.Week, r.Day, r.Round = l.clock()
	}
	l.records = append(l.records, r)
}

// Info appends a neutral record.
func (l *Log) Info(category, format string, args ...any) {
	l.add(KindInfo, category, "", fmt.Sprintf(format, args...))
}

// Pos appends a positive record.
func (l *Log) Pos(category, format string, args ...any) {
	l.add(KindPositive, category, "", fmt.Sprintf(format, args...))
}

// Neg appends a negative record.
func (l *Log) Neg(category, format string, args ...any) {
	l.add(KindNegative, category, "", fmt.Sprintf(format, args...))
}

// Event appends an incident record.
func (l *Log) Event(category, format string, args ...any) {
	l.add(KindEvent, category, "", fmt.Sprintf(format, args...))
}

// Popup appends a titled record that asks for attention.
func (l *Log) Popup(category, title, format string, args ...any) {
	l.add(KindPopup, category, title, fmt.Sprintf(format, args...))
}

// Len returns the number of undrained records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns the undrained records without removing them.
func (l *Log) Records() []Record {
	return l.records
}

// Drain returns all collected records and empties the log.
func (l *Log) Drain() []Record {
	out := l.records
	l.records = nil
	return out
}

// Sink renders records. Implementations must not block the simulation.
type Sink interface {
	Info(text string)
	Pos(text string)
	Neg(text string)
	Event(text string)
	Popup(title, body string)
}

// Dispatch forwards each record to the matching sink method.
func Dispatch(sink Sink, records []Record) {
	for _, r := range records {
		switch r.Kind {
		case KindPositive:
			sink.Pos(r.Text)
		case KindNegative:
			sink.Neg(r.Text)
		case KindEvent:
			sink.Event(r.Text)
		case KindPopup:
			sink.Popup(r.Title, r.Text)
		default:
			sink.Info(r.Text)
		}
	}
}

// SlogSink writes records through a structured logger.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s SlogSink) Info(text string)  { s.logger().Info(text, "kind", "info") }
func (s SlogSink) Pos(text string)   { s.logger().Info(text, "kind", "pos") }
func (s SlogSink) Neg(text string)   { s.logger().Warn(text, "kind", "neg") }
func (s SlogSink) Event(text string) { s.logger().Info(text, "kind", "event") }

func (s SlogSink) Popup(title, body string) {
	s.logger().Info(body, "kind", "popup", "title", title)
}
