package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (ls *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.DefinitionProvider = true
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (ls *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("server initialized")
	return nil
}

func (ls *Server) shutdown(context *glsp.Context) error {
	log.Info("server shutting down")
	if ls.watcher != nil {
		if err := ls.watcher.Close(); err != nil {
			log.Errorf("failed to close manifest watcher: %s", err)
		}
	}
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// workspaceDidChangeConfiguration picks up the editor-selected environment.
// The selection overrides filename inference for every open runbook, so
// diagnostics are recomputed.
func (ls *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	env := environmentSetting(params.Settings)
	ls.state.SetEnvironment(env)
	log.Infof("environment set to %q", env)

	for _, snapshot := range ls.state.OpenDocuments() {
		if snapshot.IsRunbook {
			ls.publishDiagnostics(context, snapshot)
		}
	}
	return nil
}

// environmentSetting digs the environment name out of the settings blob.
// Accepts both {"environment": "x"} and {"runedoc": {"environment": "x"}}.
func environmentSetting(settings any) string {
	section, ok := settings.(map[string]any)
	if !ok {
		return ""
	}
	if nested, ok := section["runedoc"].(map[string]any); ok {
		section = nested
	}
	env, _ := section["environment"].(string)
	return env
}

func (ls *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	snapshot := ls.state.OpenDocument(params.TextDocument.URI, params.TextDocument.Text)
	ls.publishDiagnostics(context, snapshot)
	return nil
}

func (ls *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	for _, change := range params.ContentChanges {
		switch contentChange := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			ls.state.UpdateDocument(params.TextDocument.URI, contentChange.Text)
		case protocol.TextDocumentContentChangeEvent:
			snapshot, ok := ls.state.Document(params.TextDocument.URI)
			if !ok {
				continue
			}
			updated := applyChange(snapshot.Content, contentChange)
			ls.state.UpdateDocument(params.TextDocument.URI, updated)
		}
	}

	if snapshot, ok := ls.state.Document(params.TextDocument.URI); ok {
		ls.publishDiagnostics(context, snapshot)
	}
	return nil
}

func (ls *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	ls.state.CloseDocument(params.TextDocument.URI)
	reportDiagnostics(context, params.TextDocument.URI, nil)
	return nil
}

// applyChange applies one ranged content change. The server advertises full
// sync, but a client may still send ranges; handling them beats dropping
// the edit.
func applyChange(content string, change protocol.TextDocumentContentChangeEvent) string {
	if change.Range == nil {
		return change.Text
	}
	start := offsetAt(content, change.Range.Start)
	end := offsetAt(content, change.Range.End)
	if start > len(content) {
		start = len(content)
	}
	if end > len(content) {
		end = len(content)
	}
	if end < start {
		end = start
	}
	return content[:start] + change.Text + content[end:]
}

func offsetAt(content string, pos protocol.Position) int {
	offset := 0
	line := uint32(0)
	for offset < len(content) && line < pos.Line {
		if content[offset] == '\n' {
			line++
		}
		offset++
	}
	offset += int(pos.Character)
	if offset > len(content) {
		offset = len(content)
	}
	return offset
}
