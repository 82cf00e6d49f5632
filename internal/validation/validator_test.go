package validation_test

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"runedoc/internal/manifest"
	"runedoc/internal/validation"
)

const validRunbook = `action "deploy" "evm::deploy_contract" {
  address = inputs.contract_address
  key     = inputs.api_key
}
`

func TestValidateDocumentReportsUndefinedInputs(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    api_key: dev_key\n")

	result := validation.New().ValidateDocument(
		context.Background(), validRunbook, "deploy.tx", m, "dev", nil)

	// contract_address is undefined, api_key is defined but sensitive.
	if result.ErrorCount() != 1 {
		t.Fatalf("errors = %+v, want exactly one", result.Errors)
	}
	err := result.Errors[0]
	if err.Level != "error" || err.File != "deploy.tx" {
		t.Errorf("error = %+v", err)
	}
	if err.Line == nil || *err.Line != 1 {
		t.Errorf("error line = %v, want 1", err.Line)
	}

	foundSensitive := false
	for _, w := range result.Warnings {
		if w.Message == "" {
			t.Errorf("warning without message: %+v", w)
		}
		if w.Level != "warning" {
			t.Errorf("warning level = %q", w.Level)
		}
		if w.Suggestion != "" {
			foundSensitive = true
		}
	}
	if !foundSensitive {
		t.Error("expected a warning carrying a suggestion")
	}
}

func TestValidateDocumentSyntaxErrorIsFatalForFile(t *testing.T) {
	m := testManifest(t, "environments:\n  dev: {}\n")
	src := "action \"deploy\" {\n  address = inputs.missing\n  broken = \n"

	result := validation.New().ValidateDocument(
		context.Background(), src, "broken.tx", m, "dev", nil)

	if result.ErrorCount() != 1 {
		t.Fatalf("parse failure must yield exactly one error, got %+v", result.Errors)
	}
	// No rule output: inputs.missing is never evaluated.
	if result.WarningCount() != 0 {
		t.Errorf("no rules may run after a parse failure, got %+v", result.Warnings)
	}
}

func TestValidateDocumentWithoutManifest(t *testing.T) {
	src := "variable \"x\" {\n  value = input.foo\n}\n"

	result := validation.New().ValidateDocument(
		context.Background(), src, "solo.tx", nil, "", nil)

	if result.ErrorCount() != 0 || result.WarningCount() != 0 {
		t.Errorf("missing manifest is not a fault; got errors=%+v warnings=%+v",
			result.Errors, result.Warnings)
	}
}

func TestValidateDocumentUnknownNamespace(t *testing.T) {
	src := "action \"x\" \"nosuch::thing\" {\n}\n"

	result := validation.New().ValidateDocument(
		context.Background(), src, "a.tx", nil, "", nil)

	if result.ErrorCount() != 1 {
		t.Fatalf("unknown namespace should error, got %+v", result.Errors)
	}
}

func TestValidateDocumentIsDeterministic(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    api_key: k\n")

	validate := func() []byte {
		result := validation.New().ValidateDocument(
			context.Background(), validRunbook, "deploy.tx", m, "dev", nil)
		data, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		return data
	}

	first, second := validate(), validate()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs:\n%s\n%s", first, second)
	}
}

func TestValidateDocumentOrderFollowsSource(t *testing.T) {
	m := testManifest(t, "environments:\n  dev: {}\n")
	src := "a = input.zz_missing\nb = input.aa_missing\n"

	result := validation.New().ValidateDocument(
		context.Background(), src, "o.tx", m, "dev", nil)

	if result.ErrorCount() != 2 {
		t.Fatalf("errors = %+v", result.Errors)
	}
	if *result.Errors[0].Line != 0 || *result.Errors[1].Line != 1 {
		t.Errorf("errors must follow source order: %+v", result.Errors)
	}
}

func TestValidateDocumentRepeatedFindingsNotDeduplicated(t *testing.T) {
	m := testManifest(t, "environments:\n  dev: {}\n")
	src := "a = input.gone\nb = input.gone\n"

	result := validation.New().ValidateDocument(
		context.Background(), src, "d.tx", m, "dev", nil)

	if result.ErrorCount() != 2 {
		t.Errorf("distinct references report separately, got %d errors", result.ErrorCount())
	}
}

func TestValidateDocumentCLISuggestionNote(t *testing.T) {
	m := testManifest(t, "environments:\n  dev: {}\n")
	cli := []manifest.CLIInput{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}

	result := validation.New().ValidateDocument(
		context.Background(), "x = 1\n", "c.tx", m, "dev", cli)

	if len(result.Suggestions) == 0 {
		t.Fatal("CLI inputs should produce a precedence note")
	}
	if result.Suggestions[0].Message != "2 CLI inputs provided. CLI inputs take precedence over environment values." {
		t.Errorf("note = %q", result.Suggestions[0].Message)
	}
}

type panickingRule struct{}

func (panickingRule) Name() string { return "panicking" }

func (panickingRule) Check(*validation.Context) validation.Outcome {
	panic("rule blew up")
}

func TestRulePanicFailsOpen(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    region: us-east-1\n")
	src := "r = input.region\n"

	result := validation.WithRules(panickingRule{}, validation.InputDefinedRule{}).
		ValidateDocument(context.Background(), src, "p.tx", m, "dev", nil)

	// The panic maps to Pass; the following rule still runs and passes too.
	if result.ErrorCount() != 0 || result.WarningCount() != 0 {
		t.Errorf("panicking rule must fail open, got errors=%+v warnings=%+v",
			result.Errors, result.Warnings)
	}
}

func TestResultJSONShape(t *testing.T) {
	result := validation.NewResult()
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"errors":[],"warnings":[],"suggestions":[]}`
	if string(data) != want {
		t.Errorf("empty result JSON = %s, want %s", data, want)
	}
}
