package validation_test

import (
	"strings"
	"testing"

	"runedoc/internal/manifest"
	"runedoc/internal/validation"
)

func testManifest(t *testing.T, content string) *manifest.WorkspaceManifest {
	t.Helper()
	m, err := manifest.Parse("/work/runedoc.yml", []byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func testContext(name string, m *manifest.WorkspaceManifest, env string, cli []manifest.CLIInput) *validation.Context {
	effective := map[string]string{}
	if m != nil {
		effective = m.EffectiveInputs(env, cli)
	}
	return &validation.Context{
		InputName:       name,
		FullName:        "input." + name,
		Manifest:        m,
		Environment:     env,
		EffectiveInputs: effective,
		CLIInputs:       cli,
		Content:         "test content",
		FilePath:        "test.tx",
	}
}

func TestInputDefinedRule(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    my_var: value\n")
	rule := validation.InputDefinedRule{}

	if got := rule.Check(testContext("my_var", m, "dev", nil)); got.Kind != validation.Pass {
		t.Errorf("defined input: got %+v, want Pass", got)
	}

	got := rule.Check(testContext("missing_var", m, "dev", nil))
	if got.Kind != validation.Error {
		t.Fatalf("missing input: got kind %v, want Error", got.Kind)
	}
	if !strings.Contains(got.Message, "not defined") {
		t.Errorf("message = %q", got.Message)
	}
	if got.DocLink == "" {
		t.Error("missing input error should carry a documentation link")
	}
	if got.Suggestion == nil || !strings.Contains(got.Suggestion.Example, "missing_var") {
		t.Errorf("suggestion = %+v", got.Suggestion)
	}
}

func TestInputDefinedRuleHonorsCLIOverrides(t *testing.T) {
	m := testManifest(t, "environments:\n  dev: {}\n")
	rule := validation.InputDefinedRule{}

	cli := []manifest.CLIInput{{Key: "only_on_cli", Value: "x"}}
	if got := rule.Check(testContext("only_on_cli", m, "dev", cli)); got.Kind != validation.Pass {
		t.Errorf("CLI-supplied input should count as defined, got %+v", got)
	}
}

func TestNamingConventionRule(t *testing.T) {
	m := testManifest(t, "environments: {}\n")
	rule := validation.InputNamingConventionRule{}

	tests := []struct {
		name     string
		wantKind validation.Kind
		fragment string
	}{
		{"_private_var", validation.Warning, "underscore"},
		{"my-input", validation.Warning, "hyphens"},
		{"MyInput", validation.Warning, "lowercase"},
		{"well_named", validation.Pass, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Check(testContext(tt.name, m, "", nil))
			if got.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.fragment != "" && !strings.Contains(got.Message, tt.fragment) {
				t.Errorf("message = %q, want fragment %q", got.Message, tt.fragment)
			}
		})
	}
}

func TestCliOverrideRule(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    api_url: manifest_value\n")
	rule := validation.CliInputOverrideRule{}

	// Override of a manifest value warns.
	cli := []manifest.CLIInput{{Key: "api_url", Value: "cli_value"}}
	got := rule.Check(testContext("api_url", m, "dev", cli))
	if got.Kind != validation.Warning || !strings.Contains(got.Message, "overridden by CLI") {
		t.Errorf("got %+v, want override warning", got)
	}

	// No CLI value: silent.
	if got := rule.Check(testContext("api_url", m, "dev", nil)); got.Kind != validation.Pass {
		t.Errorf("no override should pass, got %+v", got)
	}

	// CLI value with no manifest value underneath: nothing is shadowed.
	cli = []manifest.CLIInput{{Key: "fresh", Value: "x"}}
	if got := rule.Check(testContext("fresh", m, "dev", cli)); got.Kind != validation.Pass {
		t.Errorf("CLI-only input should pass, got %+v", got)
	}
}

func TestSensitiveDataRule(t *testing.T) {
	m := testManifest(t, "environments: {}\n")
	rule := validation.SensitiveDataRule{}

	for _, name := range []string{"password", "api_key", "secret_token", "private_key"} {
		got := rule.Check(testContext(name, m, "", nil))
		if got.Kind != validation.Warning {
			t.Errorf("%s: got kind %v, want Warning", name, got.Kind)
		}
		if !strings.Contains(got.Message, "sensitive") {
			t.Errorf("%s: message = %q", name, got.Message)
		}
	}

	if got := rule.Check(testContext("region", m, "", nil)); got.Kind != validation.Pass {
		t.Errorf("benign name should pass, got %+v", got)
	}
}

func TestSensitiveDataRuleFlagsHighEntropyValues(t *testing.T) {
	m := testManifest(t, "environments:\n  dev:\n    endpoint: \"aB3dE5fG7hJ9kL1mN3pQ5rS7\"\n")
	rule := validation.SensitiveDataRule{}

	got := rule.Check(testContext("endpoint", m, "dev", nil))
	if got.Kind != validation.Warning {
		t.Errorf("high-entropy value should warn, got %+v", got)
	}

	m = testManifest(t, "environments:\n  dev:\n    endpoint: \"https://dev.example.com\"\n")
	if got := rule.Check(testContext("endpoint", m, "dev", nil)); got.Kind != validation.Pass {
		t.Errorf("plain URL should pass, got %+v", got)
	}
}

func TestStrictSetEscalatesSensitiveData(t *testing.T) {
	m := testManifest(t, "environments:\n  production:\n    api_key: \"real-value\"\n")

	var sensitive validation.Rule
	for _, rule := range validation.StrictRules() {
		if rule.Name() == "no_sensitive_data" {
			sensitive = rule
		}
	}
	if sensitive == nil {
		t.Fatal("strict set should still register no_sensitive_data")
	}

	got := sensitive.Check(testContext("api_key", m, "production", nil))
	if got.Kind != validation.Error {
		t.Errorf("strict set should escalate to Error, got kind %v", got.Kind)
	}

	// The same rule in the default set stays a warning.
	lenient := validation.SensitiveDataRule{}
	if got := lenient.Check(testContext("api_key", m, "dev", nil)); got.Kind != validation.Warning {
		t.Errorf("default set should warn, got kind %v", got.Kind)
	}
}

func TestRulesForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "prod"} {
		if len(validation.RulesForEnvironment(env)) != len(validation.StrictRules()) {
			t.Errorf("%s should select the strict set", env)
		}
	}
	for _, env := range []string{"dev", "staging", ""} {
		if len(validation.RulesForEnvironment(env)) != len(validation.DefaultRules()) {
			t.Errorf("%s should select the default set", env)
		}
	}
}

func TestNoPlaceholderValuesRule(t *testing.T) {
	m := testManifest(t, "environments:\n  production:\n    api_url: \"https://example-service.io\"\n    db_url: changeme\n")
	rule := validation.NoPlaceholderValuesRule{}

	got := rule.Check(testContext("db_url", m, "production", nil))
	if got.Kind != validation.Error || !strings.Contains(got.Message, "placeholder") {
		t.Errorf("changeme should error, got %+v", got)
	}

	got = rule.Check(testContext("api_url", m, "production", nil))
	if got.Kind != validation.Error {
		// "example-service.io" contains "example": placeholder fragments
		// match substrings, as pasted sample configs usually do.
		t.Errorf("example fragment should error, got %+v", got)
	}

	if got := rule.Check(testContext("undefined", m, "production", nil)); got.Kind != validation.Pass {
		t.Errorf("undefined input is out of scope for this rule, got %+v", got)
	}
}

func TestRequiredProductionInputsRule(t *testing.T) {
	m := testManifest(t, "environments:\n  production: {}\n  dev: {}\n")
	rule := validation.RequiredProductionInputsRule{}

	got := rule.Check(testContext("api_key", m, "production", nil))
	if got.Kind != validation.Error {
		t.Errorf("missing critical production input should error, got %+v", got)
	}

	if got := rule.Check(testContext("api_key", m, "dev", nil)); got.Kind != validation.Pass {
		t.Errorf("rule only applies to production, got %+v", got)
	}

	if got := rule.Check(testContext("plain_var", m, "production", nil)); got.Kind != validation.Pass {
		t.Errorf("non-critical input should pass, got %+v", got)
	}
}
