// Package specs is the read-only catalog of known addon namespaces, their
// actions, and the builtin functions of the runbook language. Hover and
// structural checks look things up here; nothing writes to it.
package specs

import "fmt"

// ActionSpec documents one action of an addon namespace.
type ActionSpec struct {
	Namespace string
	Name      string
	Doc       string
}

// FunctionSpec documents a builtin function.
type FunctionSpec struct {
	Name      string
	Signature string
	Doc       string
}

var actions = map[string]map[string]ActionSpec{
	"std": {
		"send_http_request": {Namespace: "std", Name: "send_http_request", Doc: "Sends an HTTP request and exposes the response to later steps."},
		"run_command":       {Namespace: "std", Name: "run_command", Doc: "Runs a local command and captures its output."},
	},
	"evm": {
		"deploy_contract": {Namespace: "evm", Name: "deploy_contract", Doc: "Deploys a compiled contract to an EVM chain."},
		"call_contract":   {Namespace: "evm", Name: "call_contract", Doc: "Calls a function on a deployed EVM contract."},
		"send_eth":        {Namespace: "evm", Name: "send_eth", Doc: "Transfers ETH between accounts."},
	},
	"bitcoin": {
		"send_btc": {Namespace: "bitcoin", Name: "send_btc", Doc: "Builds, signs and broadcasts a Bitcoin transaction."},
	},
	"stacks": {
		"call_contract":   {Namespace: "stacks", Name: "call_contract", Doc: "Calls a public function on a Clarity contract."},
		"deploy_contract": {Namespace: "stacks", Name: "deploy_contract", Doc: "Deploys a Clarity contract."},
	},
	"svm": {
		"deploy_program": {Namespace: "svm", Name: "deploy_program", Doc: "Deploys a program to a Solana cluster."},
	},
	"telegram": {
		"send_message": {Namespace: "telegram", Name: "send_message", Doc: "Sends a message through a Telegram bot."},
	},
}

var functions = map[string]FunctionSpec{
	"encode_hex": {Name: "encode_hex", Signature: "encode_hex(value) -> string", Doc: "Encodes a value as a hex string."},
	"decode_hex": {Name: "decode_hex", Signature: "decode_hex(string) -> bytes", Doc: "Decodes a hex string into bytes."},
	"env":        {Name: "env", Signature: "env(name) -> string", Doc: "Reads a process environment variable at run time."},
	"jq":         {Name: "jq", Signature: "jq(value, query) -> value", Doc: "Applies a jq query to a value."},
}

// KnownNamespace reports whether namespace is a registered addon namespace.
func KnownNamespace(namespace string) bool {
	_, ok := actions[namespace]
	return ok
}

// Namespaces returns the registered addon namespaces.
func Namespaces() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	return names
}

// LookupAction resolves an action by namespace and name.
func LookupAction(namespace, name string) (ActionSpec, bool) {
	ns, ok := actions[namespace]
	if !ok {
		return ActionSpec{}, false
	}
	spec, ok := ns[name]
	return spec, ok
}

// LookupFunction resolves a builtin function by name.
func LookupFunction(name string) (FunctionSpec, bool) {
	spec, ok := functions[name]
	return spec, ok
}

// ActionDocLink returns the documentation URL for an action, or "" when the
// namespace is unknown.
func ActionDocLink(namespace, action string) string {
	if !KnownNamespace(namespace) {
		return ""
	}
	return fmt.Sprintf("https://docs.runedoc.dev/addons/%s/actions#%s", namespace, action)
}

// ManifestDocLink points at the manifest/environments documentation, used by
// diagnostics about undefined inputs.
const ManifestDocLink = "https://docs.runedoc.dev/concepts/manifest#environments"
