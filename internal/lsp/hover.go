package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"runedoc/internal/location"
	"runedoc/internal/manifest"
	"runedoc/internal/parser"
	"runedoc/internal/specs"
)

func (ls *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	snapshot, ok := ls.state.Document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	pos := location.Position{Line: params.Position.Line, Column: params.Position.Character}

	if ref, ok := parser.InputRefAt(snapshot.Content, pos); ok {
		res := ls.state.Resolve(snapshot.URI, "")
		if res.Manifest == nil {
			return nil, nil
		}
		return markdownHover(inputHover(res.Manifest, res.Environment, ref.Name)), nil
	}

	token := tokenAt(snapshot.Content, pos)
	if token == "" {
		return nil, nil
	}

	if namespace, action, ok := strings.Cut(token, "::"); ok {
		if spec, found := specs.LookupAction(namespace, action); found {
			text := fmt.Sprintf("**%s::%s**\n\n%s\n\n[Documentation](%s)",
				spec.Namespace, spec.Name, spec.Doc, specs.ActionDocLink(namespace, action))
			return markdownHover(text), nil
		}
		return nil, nil
	}

	if spec, found := specs.LookupFunction(token); found {
		text := fmt.Sprintf("**%s**\n\n```\n%s\n```\n\n%s", spec.Name, spec.Signature, spec.Doc)
		return markdownHover(text), nil
	}

	return nil, nil
}

func inputHover(m *manifest.WorkspaceManifest, environment, key string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**input.%s**\n\n", key)

	found := false
	for _, env := range m.Environments {
		input, ok := env.Lookup(key)
		if !ok {
			continue
		}
		found = true
		marker := ""
		if env.Name == environment {
			marker = " ← selected"
		}
		fmt.Fprintf(&b, "- `%s`: `%s`%s\n", env.Name, maskSensitive(key, input.Value), marker)
	}
	if !found {
		fmt.Fprintf(&b, "Not defined in any environment of `%s`.", m.Path)
	}
	return b.String()
}

// maskSensitive hides values whose key looks like secret material; hover
// text ends up in editor logs and screenshots.
func maskSensitive(key, value string) string {
	lower := strings.ToLower(key)
	for _, pattern := range []string{"password", "passwd", "secret", "key", "token", "credential"} {
		if strings.Contains(lower, pattern) {
			if len(value) <= 4 {
				return "****"
			}
			return value[:2] + "****" + value[len(value)-2:]
		}
	}
	return value
}

// tokenAt extracts the identifier-like token (including :: qualifiers)
// under or touching the cursor.
func tokenAt(content string, pos location.Position) string {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	cursor := int(pos.Column)
	if cursor > len(line) {
		return ""
	}

	isTokenChar := func(c byte) bool {
		return c == '_' || c == ':' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}

	start := cursor
	for start > 0 && isTokenChar(line[start-1]) {
		start--
	}
	end := cursor
	for end < len(line) && isTokenChar(line[end]) {
		end++
	}
	return strings.Trim(line[start:end], ":")
}

func markdownHover(text string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}
}
