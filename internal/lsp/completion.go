package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const completionTrigger = "input."

func (ls *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	snapshot, ok := ls.state.Document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	if !isAfterInputDot(snapshot.Content, params.Position) {
		return nil, nil
	}

	res := ls.state.Resolve(snapshot.URI, "")
	if res.Manifest == nil {
		return nil, nil
	}

	kind := protocol.CompletionItemKindVariable
	var items []protocol.CompletionItem
	for _, key := range res.Manifest.InputKeys() {
		items = append(items, protocol.CompletionItem{
			Label: key,
			Kind:  &kind,
		})
	}
	return items, nil
}

// isAfterInputDot reports whether the cursor sits immediately after the
// literal "input." on its line.
func isAfterInputDot(content string, pos protocol.Position) bool {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return false
	}
	line := lines[pos.Line]
	cursor := int(pos.Character)
	if cursor > len(line) || cursor < len(completionTrigger) {
		return false
	}
	return line[cursor-len(completionTrigger):cursor] == completionTrigger
}
