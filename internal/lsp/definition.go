package lsp

import (
	"os"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"runedoc/internal/location"
	"runedoc/internal/manifest"
	"runedoc/internal/parser"
	"runedoc/internal/workspace"
)

func (ls *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	snapshot, ok := ls.state.Document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	ref, ok := parser.InputRefAt(snapshot.Content, location.Position{
		Line:   params.Position.Line,
		Column: params.Position.Character,
	})
	if !ok {
		return nil, nil
	}

	res := ls.state.Resolve(snapshot.URI, "")
	if res.Manifest == nil {
		return nil, nil
	}

	line, found := declarationLine(res.Manifest, res.Environment, ref.Name)
	if !found {
		return nil, nil
	}

	return protocol.Location{
		URI: workspace.URIFromPath(res.Manifest.Path),
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: 0},
			End:   protocol.Position{Line: uint32(line), Character: uint32(len(ref.Name))},
		},
	}, nil
}

// declarationLine finds where an input key is declared in the manifest. The
// parsed model carries per-key source lines, so the lookup is structured;
// scanning the raw manifest text survives only as a fallback for keys the
// model somehow missed.
func declarationLine(m *manifest.WorkspaceManifest, environment, key string) (int, bool) {
	// Prefer a declaration in the active environment.
	if environment != "" {
		if env, ok := m.Environment(environment); ok {
			if input, ok := env.Lookup(key); ok {
				return input.Line, true
			}
		}
	}
	for _, env := range m.Environments {
		if input, ok := env.Lookup(key); ok {
			return input.Line, true
		}
	}
	return scanManifestForKey(m.Path, key)
}

func scanManifestForKey(path, key string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	inEnvironments := false
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "environments:") {
			inEnvironments = true
			continue
		}
		if inEnvironments && len(line) > 0 && !strings.HasPrefix(line, " ") {
			inEnvironments = false
		}
		if inEnvironments && strings.HasPrefix(trimmed, key+":") {
			return i, true
		}
	}
	return 0, false
}
