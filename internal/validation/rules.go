package validation

import (
	"fmt"
	"strings"

	"runedoc/internal/manifest"
	"runedoc/internal/specs"
)

// Context carries everything a rule may look at for one input reference.
// It is built per reference and discarded after evaluation.
type Context struct {
	InputName       string
	FullName        string
	Manifest        *manifest.WorkspaceManifest
	Environment     string
	EffectiveInputs map[string]string
	CLIInputs       []manifest.CLIInput
	Content         string
	FilePath        string
}

// Kind classifies a rule outcome.
type Kind int

const (
	Pass Kind = iota
	Info
	Warning
	Error
)

// Outcome is the result of one rule for one context.
type Outcome struct {
	Kind       Kind
	Message    string
	Context    string
	Suggestion *Suggestion
	DocLink    string
}

// Rule is a single validation check. Check must be pure: no I/O, no shared
// state, and it must not panic the scan; panics are recovered by the engine
// and treated as Pass.
type Rule interface {
	Name() string
	Check(ctx *Context) Outcome
}

// DefaultRules returns the lenient rule set, in report order.
func DefaultRules() []Rule {
	return []Rule{
		InputDefinedRule{},
		InputNamingConventionRule{},
		CliInputOverrideRule{},
		SensitiveDataRule{},
	}
}

// StrictRules returns the rule set for production environments: the default
// set with sensitive-data findings escalated to errors, plus checks that
// only make sense when the target is production.
func StrictRules() []Rule {
	return []Rule{
		InputDefinedRule{},
		InputNamingConventionRule{},
		CliInputOverrideRule{},
		escalated{SensitiveDataRule{}},
		NoPlaceholderValuesRule{},
		RequiredProductionInputsRule{},
	}
}

// RulesForEnvironment selects the strict set for production-like
// environments and the default set otherwise. Strictness is a property of
// the set; individual rules are unchanged.
func RulesForEnvironment(environment string) []Rule {
	if environment == "production" || environment == "prod" {
		return StrictRules()
	}
	return DefaultRules()
}

// escalated raises a rule's warnings to errors without touching the rule.
type escalated struct {
	inner Rule
}

func (e escalated) Name() string { return e.inner.Name() }

func (e escalated) Check(ctx *Context) Outcome {
	outcome := e.inner.Check(ctx)
	if outcome.Kind == Warning {
		outcome.Kind = Error
	}
	return outcome
}

// InputDefinedRule errors when a referenced input exists in no environment
// of the manifest and among no CLI overrides.
type InputDefinedRule struct{}

func (InputDefinedRule) Name() string { return "input_defined" }

func (InputDefinedRule) Check(ctx *Context) Outcome {
	if _, ok := ctx.EffectiveInputs[ctx.InputName]; ok {
		return Outcome{Kind: Pass}
	}

	envName := ctx.Environment
	if envName == "" {
		envName = manifest.GlobalEnvironment
	}

	contextMsg := fmt.Sprintf("Add '%s' to your runedoc.yml file", ctx.InputName)
	example := fmt.Sprintf("environments:\n  %s:\n    %s: \"<value>\"", envName, ctx.InputName)
	if envName != manifest.GlobalEnvironment {
		contextMsg += " (consider adding to 'global' if used across environments)"
		example += "\n  # Or add to 'global' for all environments"
	}

	return Outcome{
		Kind: Error,
		Message: fmt.Sprintf("Input '%s' is not defined in environment '%s' (including inherited values)",
			ctx.FullName, envName),
		Context: contextMsg,
		Suggestion: &Suggestion{
			Message: "Add the missing input to your environment",
			Example: example,
		},
		DocLink: specs.ManifestDocLink,
	}
}

// InputNamingConventionRule warns when an input name strays from the
// lowercase-with-underscores convention.
type InputNamingConventionRule struct{}

func (InputNamingConventionRule) Name() string { return "input_naming_convention" }

func (InputNamingConventionRule) Check(ctx *Context) Outcome {
	name := ctx.InputName
	switch {
	case strings.HasPrefix(name, "_"):
		return Outcome{
			Kind:    Warning,
			Message: fmt.Sprintf("Input '%s' starts with underscore, which may indicate a private variable", name),
			Suggestion: &Suggestion{
				Message: "Consider using a different naming convention",
				Example: fmt.Sprintf("Rename to: %s", strings.TrimLeft(name, "_")),
			},
		}
	case strings.Contains(name, "-"):
		return Outcome{
			Kind:    Warning,
			Message: fmt.Sprintf("Input '%s' contains hyphens, consider using underscores", name),
			Suggestion: &Suggestion{
				Message: "Use underscores instead of hyphens for consistency",
				Example: fmt.Sprintf("Rename to: %s", strings.ReplaceAll(name, "-", "_")),
			},
		}
	case name != "" && name[0] >= 'A' && name[0] <= 'Z':
		return Outcome{
			Kind:    Warning,
			Message: fmt.Sprintf("Input '%s' should start with a lowercase letter", name),
			Suggestion: &Suggestion{
				Message: "Use lowercase for input names",
				Example: fmt.Sprintf("Rename to: %s", strings.ToLower(name)),
			},
		}
	}
	return Outcome{Kind: Pass}
}

// CliInputOverrideRule surfaces CLI values that shadow a manifest value so
// the override never happens silently.
type CliInputOverrideRule struct{}

func (CliInputOverrideRule) Name() string { return "cli_input_override" }

func (CliInputOverrideRule) Check(ctx *Context) Outcome {
	if _, ok := ctx.EffectiveInputs[ctx.InputName]; !ok {
		return Outcome{Kind: Pass}
	}

	overridden := false
	for _, cli := range ctx.CLIInputs {
		if cli.Key == ctx.InputName {
			overridden = true
			break
		}
	}
	if !overridden || ctx.Manifest == nil {
		return Outcome{Kind: Pass}
	}

	envName := ctx.Environment
	if envName == "" {
		envName = manifest.GlobalEnvironment
	}
	env, ok := ctx.Manifest.Environment(envName)
	if !ok {
		return Outcome{Kind: Pass}
	}
	if _, ok := env.Lookup(ctx.InputName); !ok {
		return Outcome{Kind: Pass}
	}

	return Outcome{
		Kind:    Warning,
		Message: fmt.Sprintf("Input '%s' is defined in manifest but overridden by CLI argument", ctx.InputName),
		Suggestion: &Suggestion{
			Message: "CLI inputs take precedence over environment values",
		},
	}
}

var sensitivePatterns = []string{
	"password", "passwd", "pwd",
	"secret", "key", "token",
	"credential", "cred",
	"private", "priv",
}

// SensitiveDataRule warns when an input name or its resolved value looks
// like secret material that should live in external secret storage.
type SensitiveDataRule struct{}

func (SensitiveDataRule) Name() string { return "no_sensitive_data" }

func (SensitiveDataRule) Check(ctx *Context) Outcome {
	lower := strings.ToLower(ctx.InputName)
	matched := false
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			matched = true
			break
		}
	}
	if !matched {
		if value, ok := ctx.EffectiveInputs[ctx.InputName]; ok && looksHighEntropy(value) {
			matched = true
		}
	}
	if !matched {
		return Outcome{Kind: Pass}
	}

	return Outcome{
		Kind:    Warning,
		Message: fmt.Sprintf("Input '%s' appears to contain sensitive information", ctx.InputName),
		Suggestion: &Suggestion{
			Message: "Consider using environment variables or a secure secret manager",
			Example: fmt.Sprintf("# Set via environment variable:\nexport %s=\"${VAULT_SECRET}\"", strings.ToUpper(ctx.InputName)),
		},
	}
}

// looksHighEntropy flags long, space-free literals with a wide character
// spread, the shape of pasted keys and tokens.
func looksHighEntropy(value string) bool {
	if len(value) < 20 || strings.ContainsAny(value, " \t") {
		return false
	}
	distinct := make(map[rune]struct{}, len(value))
	hasDigit, hasAlpha := false, false
	for _, r := range value {
		distinct[r] = struct{}{}
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasAlpha = true
		}
	}
	return hasDigit && hasAlpha && len(distinct) >= 12
}

var placeholderValues = []string{"changeme", "replaceme"}

var placeholderFragments = []string{"default", "example", "test", "demo"}

// NoPlaceholderValuesRule errors on placeholder-looking effective values.
// Only part of the strict set.
type NoPlaceholderValuesRule struct{}

func (NoPlaceholderValuesRule) Name() string { return "no_placeholder_values" }

func (NoPlaceholderValuesRule) Check(ctx *Context) Outcome {
	value, ok := ctx.EffectiveInputs[ctx.InputName]
	if !ok {
		return Outcome{Kind: Pass}
	}

	lower := strings.ToLower(value)
	placeholder := false
	for _, exact := range placeholderValues {
		if lower == exact {
			placeholder = true
			break
		}
	}
	if !placeholder {
		for _, fragment := range placeholderFragments {
			if strings.Contains(lower, fragment) {
				placeholder = true
				break
			}
		}
	}
	if !placeholder {
		return Outcome{Kind: Pass}
	}

	return Outcome{
		Kind:    Error,
		Message: fmt.Sprintf("Input '%s' appears to have a placeholder value: '%s'", ctx.InputName, value),
		Context: "Production environments require real values",
		Suggestion: &Suggestion{
			Message: "Replace with actual production value",
		},
	}
}

var requiredProductionInputs = []string{
	"api_key", "api_secret", "api_token",
	"database_url", "db_url", "db_connection",
	"rpc_url", "rpc_endpoint",
	"private_key", "signing_key",
}

// RequiredProductionInputsRule errors when a known-critical input is
// referenced but undefined in a production environment. Only part of the
// strict set.
type RequiredProductionInputsRule struct{}

func (RequiredProductionInputsRule) Name() string { return "required_production_inputs" }

func (RequiredProductionInputsRule) Check(ctx *Context) Outcome {
	if ctx.Environment != "production" && ctx.Environment != "prod" {
		return Outcome{Kind: Pass}
	}

	required := false
	for _, name := range requiredProductionInputs {
		if ctx.InputName == name {
			required = true
			break
		}
	}
	if !required {
		return Outcome{Kind: Pass}
	}
	if _, ok := ctx.EffectiveInputs[ctx.InputName]; ok {
		return Outcome{Kind: Pass}
	}

	return Outcome{
		Kind:    Error,
		Message: fmt.Sprintf("Required production input '%s' is not defined", ctx.InputName),
		Context: "This input is critical for production deployments",
		Suggestion: &Suggestion{
			Message: "Add this input to your production environment",
			Example: fmt.Sprintf("environments:\n  production:\n    %s: \"<secure-value>\"", ctx.InputName),
		},
	}
}
