package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"runedoc/internal/validation"
	"runedoc/internal/workspace"
)

const diagnosticSource = "runedoc"

// publishDiagnostics validates a document snapshot and pushes the outcome
// to the client. Non-runbook documents always get an empty set.
func (ls *Server) publishDiagnostics(glspContext *glsp.Context, snapshot workspace.DocumentSnapshot) {
	reportDiagnostics(glspContext, snapshot.URI, ls.computeDiagnostics(snapshot))
}

// computeDiagnostics runs the resolver and rule engine against a snapshot.
// The store is not locked here: the snapshot is an owned copy and the
// manifest is immutable once loaded.
func (ls *Server) computeDiagnostics(snapshot workspace.DocumentSnapshot) []protocol.Diagnostic {
	if !snapshot.IsRunbook {
		return nil
	}

	res := ls.state.Resolve(snapshot.URI, "")
	validator := validation.ForEnvironment(res.Environment)
	result := validator.ValidateDocument(
		context.Background(),
		snapshot.Content,
		snapshot.Path,
		res.Manifest,
		res.Environment,
		nil,
	)

	var diagnostics []protocol.Diagnostic
	for _, issue := range result.Errors {
		diagnostics = append(diagnostics, issueToDiagnostic(issue, protocol.DiagnosticSeverityError))
	}
	for _, issue := range result.Warnings {
		diagnostics = append(diagnostics, issueToDiagnostic(issue, protocol.DiagnosticSeverityWarning))
	}

	if res.Manifest != nil && res.Unlisted {
		severity := protocol.DiagnosticSeverityWarning
		source := diagnosticSource
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{},
			Severity: &severity,
			Source:   &source,
			Message:  "Runbook is not listed in the workspace manifest",
		})
	}

	return diagnostics
}

func issueToDiagnostic(issue validation.Issue, severity protocol.DiagnosticSeverity) protocol.Diagnostic {
	var start protocol.Position
	if issue.Line != nil {
		start.Line = uint32(*issue.Line)
	}
	if issue.Column != nil {
		start.Character = uint32(*issue.Column)
	}
	end := protocol.Position{Line: start.Line, Character: start.Character + 1}

	source := diagnosticSource
	message := issue.Message
	if issue.Suggestion != "" {
		message += " (hint: " + issue.Suggestion + ")"
	}

	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

func reportDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	context.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
