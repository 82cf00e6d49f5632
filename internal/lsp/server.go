// Package lsp exposes the workspace tooling over the language server
// protocol: diagnostics, completion, go-to-definition and hover.
package lsp

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"runedoc/internal/workspace"
)

const lsName = "runedoc"

var version = "0.1.0"

var log = commonlog.GetLogger("lsp")

// Server binds the protocol handlers to the shared workspace state. Each
// handler is stateless: it reads a snapshot from the store, releases it,
// and works on the copy.
type Server struct {
	state   *workspace.State
	watcher *workspace.ManifestWatcher
	handler *protocol.Handler
}

// NewServer creates the language server.
func NewServer() (*server.Server, error) {
	state := workspace.NewState()

	watcher, err := workspace.NewManifestWatcher(state)
	if err != nil {
		// Diagnostics still work without live manifest reloads.
		log.Errorf("manifest watching disabled: %s", err)
	}

	ls := &Server{
		state:   state,
		watcher: watcher,
	}

	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		TextDocumentDefinition:          ls.textDocumentDefinition,
		TextDocumentHover:               ls.textDocumentHover,
		WorkspaceDidChangeConfiguration: ls.workspaceDidChangeConfiguration,
		SetTrace:                        ls.setTrace,
		Shutdown:                        ls.shutdown,
	}

	return server.NewServer(ls.handler, lsName, false), nil
}
