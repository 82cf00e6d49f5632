// Package validation evaluates semantic rules against runbook documents and
// folds rule outcomes and parser errors into a single ordered result.
package validation

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"

	"runedoc/internal/manifest"
	"runedoc/internal/parser"
	"runedoc/internal/specs"
)

var log = commonlog.GetLogger("validation")

// Validator runs a fixed rule set over every input reference of a document.
type Validator struct {
	rules []Rule
}

// New returns a validator with the default rule set.
func New() *Validator {
	return &Validator{rules: DefaultRules()}
}

// NewStrict returns a validator with the production rule set.
func NewStrict() *Validator {
	return &Validator{rules: StrictRules()}
}

// ForEnvironment returns a validator whose strictness matches the
// environment name.
func ForEnvironment(environment string) *Validator {
	return &Validator{rules: RulesForEnvironment(environment)}
}

// WithRules returns a validator running exactly the given rules.
func WithRules(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// ValidateDocument checks src against the manifest and environment and
// returns every issue found.
//
// A syntax error is fatal for the document: exactly one error is reported
// and no rules run. Without a manifest only structural checks run;
// manifest-dependent rules are skipped entirely, which is not itself a
// fault. Results are deterministic for identical input: issues appear in
// source order, and per reference in rule registration order.
func (v *Validator) ValidateDocument(
	ctx context.Context,
	src string,
	filePath string,
	m *manifest.WorkspaceManifest,
	environment string,
	cliInputs []manifest.CLIInput,
) *Result {
	result := NewResult()

	doc, err := parser.Parse(ctx, []byte(src))
	if err != nil {
		result.Errors = append(result.Errors, Issue{
			File:    filePath,
			Level:   "error",
			Message: fmt.Sprintf("failed to parse runbook: %s", err),
		})
		return result
	}
	defer doc.Close()

	if syntaxErrs := doc.SyntaxErrors(); len(syntaxErrs) > 0 {
		first := syntaxErrs[0]
		line, column := int(first.Span.Start.Line), int(first.Span.Start.Column)
		result.Errors = append(result.Errors, Issue{
			File:    filePath,
			Line:    &line,
			Column:  &column,
			Level:   "error",
			Message: first.Value,
		})
		return result
	}

	v.checkBlockStructure(doc, filePath, result)

	if m == nil {
		// Single-file mode: nothing to resolve input references against.
		return result
	}

	if len(cliInputs) > 0 {
		result.Suggestions = append(result.Suggestions, Suggestion{
			Message: fmt.Sprintf("%d CLI inputs provided. CLI inputs take precedence over environment values.", len(cliInputs)),
		})
	}

	effective := m.EffectiveInputs(environment, cliInputs)

	for _, ref := range doc.InputRefs() {
		ruleCtx := &Context{
			InputName:       ref.Name,
			FullName:        ref.FullName,
			Manifest:        m,
			Environment:     environment,
			EffectiveInputs: effective,
			CLIInputs:       cliInputs,
			Content:         src,
			FilePath:        filePath,
		}

		for _, rule := range v.rules {
			outcome := runRule(rule, ruleCtx)
			appendOutcome(result, outcome, filePath, int(ref.Line), int(ref.Column))
		}
	}

	return result
}

// checkBlockStructure reports action blocks whose type label names an
// unknown addon namespace. This needs no manifest.
func (v *Validator) checkBlockStructure(doc *parser.Document, filePath string, result *Result) {
	for _, block := range doc.Blocks() {
		if block.Type != "action" || block.Namespace == "" {
			continue
		}
		if specs.KnownNamespace(block.Namespace) {
			continue
		}
		line, column := int(block.Span.Start.Line), int(block.Span.Start.Column)
		result.Errors = append(result.Errors, Issue{
			File:    filePath,
			Line:    &line,
			Column:  &column,
			Level:   "error",
			Message: fmt.Sprintf("Unknown addon namespace '%s' in action type '%s'", block.Namespace, block.TypeLabel),
			Context: fmt.Sprintf("Known namespaces: %v", specs.Namespaces()),
		})
	}
}

// runRule evaluates one rule, converting a panic into Pass. Fail-open: a
// broken rule must never abort the scan, even at the cost of a missed
// diagnostic.
func runRule(rule Rule, ctx *Context) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("rule %s panicked on input '%s': %v", rule.Name(), ctx.FullName, r)
			outcome = Outcome{Kind: Pass}
		}
	}()
	return rule.Check(ctx)
}

func appendOutcome(result *Result, outcome Outcome, file string, line, column int) {
	switch outcome.Kind {
	case Pass:
		return
	case Info:
		result.Suggestions = append(result.Suggestions, Suggestion{Message: outcome.Message})
	case Warning:
		issue := Issue{
			File:    file,
			Line:    &line,
			Column:  &column,
			Level:   "warning",
			Message: outcome.Message,
		}
		if outcome.Suggestion != nil {
			issue.Suggestion = outcome.Suggestion.Message
		}
		result.Warnings = append(result.Warnings, issue)
	case Error:
		result.Errors = append(result.Errors, Issue{
			File:          file,
			Line:          &line,
			Column:        &column,
			Level:         "error",
			Message:       outcome.Message,
			Context:       outcome.Context,
			Documentation: outcome.DocLink,
		})
	}
	if outcome.Suggestion != nil {
		result.Suggestions = append(result.Suggestions, *outcome.Suggestion)
	}
}
