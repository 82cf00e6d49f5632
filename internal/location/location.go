package location

import "fmt"

// Position is a zero-based (line, column) location in a document.
type Position struct {
	Line   uint32
	Column uint32
}

// Before reports whether p comes before other in document order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open [Start, End) range over positions.
type Span struct {
	Start Position
	End   Position
}

// PointSpan returns an empty span at pos.
func PointSpan(pos Position) Span {
	return Span{Start: pos, End: pos}
}

// Contains reports whether pos falls inside the span.
// The end position is exclusive.
func (s Span) Contains(pos Position) bool {
	if pos.Before(s.Start) {
		return false
	}
	return pos.Before(s.End)
}

// Touches reports whether pos is inside the span or immediately at its end,
// which is what cursor-based lookups want: a cursor sitting just after the
// last character of a token still refers to that token.
func (s Span) Touches(pos Position) bool {
	if s.Contains(pos) {
		return true
	}
	return pos == s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Located pairs a value with the span it was read from.
type Located[T any] struct {
	Value T
	Span  Span
}

// At wraps value with its span.
func At[T any](value T, span Span) Located[T] {
	return Located[T]{Value: value, Span: span}
}
