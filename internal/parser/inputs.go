package parser

import (
	"regexp"
	"strings"

	"runedoc/internal/location"
)

// InputRef is a textual "input.<name>" (or "inputs.<name>") reference found
// in a document. Line and Column are zero-based and point at the start of
// the full reference.
type InputRef struct {
	Name     string
	FullName string
	Line     uint32
	Column   uint32
}

// Span returns the source span covering the full reference. References never
// span lines.
func (r InputRef) Span() location.Span {
	return location.Span{
		Start: location.Position{Line: r.Line, Column: r.Column},
		End:   location.Position{Line: r.Line, Column: r.Column + uint32(len(r.FullName))},
	}
}

var inputRefPattern = regexp.MustCompile(`\binputs?\.[A-Za-z_][A-Za-z0-9_-]*`)

// ScanInputRefs extracts every input reference from src in source order.
func ScanInputRefs(src string) []InputRef {
	var refs []InputRef
	for lineIdx, line := range strings.Split(src, "\n") {
		for _, match := range inputRefPattern.FindAllStringIndex(line, -1) {
			start, end := match[0], match[1]
			// Reject references reached through another value, such as
			// "step.inputs.foo"; \b cannot see the preceding dot.
			if start > 0 && line[start-1] == '.' {
				continue
			}
			full := line[start:end]
			refs = append(refs, InputRef{
				Name:     full[strings.Index(full, ".")+1:],
				FullName: full,
				Line:     uint32(lineIdx),
				Column:   uint32(start),
			})
		}
	}
	return refs
}

// InputRefAt returns the input reference under or immediately touching pos,
// if any.
func InputRefAt(src string, pos location.Position) (InputRef, bool) {
	for _, ref := range ScanInputRefs(src) {
		if ref.Line == pos.Line && ref.Span().Touches(pos) {
			return ref, true
		}
	}
	return InputRef{}, false
}
