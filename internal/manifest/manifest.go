// Package manifest provides the typed view of a workspace's runedoc.yml:
// the list of known runbooks and the named environments whose key/value
// pairs back input references inside runbooks.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// GlobalEnvironment is the environment whose inputs apply everywhere unless
// shadowed by a more specific environment or a CLI override.
const GlobalEnvironment = "global"

// DefaultFilenames are the manifest filenames recognized in a workspace, in
// lookup order.
var DefaultFilenames = []string{"runedoc.yml", "runedoc.yaml"}

// WorkspaceManifest is the parsed workspace configuration. It is immutable
// once loaded; a reload produces a fresh value.
type WorkspaceManifest struct {
	// Path is the absolute path the manifest was loaded from. Empty for
	// manifests parsed from editor buffers that have no file yet.
	Path string

	// Runbooks lists the named runbooks in declaration order.
	Runbooks []RunbookMetadata

	// Environments lists the named environments in declaration order.
	Environments []Environment

	// Warnings collects non-fatal problems found while parsing, such as
	// duplicate runbook names. The manifest is still usable.
	Warnings []string
}

// RunbookMetadata names a runbook and its location relative to the manifest.
type RunbookMetadata struct {
	Name     string
	Location string
}

// Environment is a named, ordered set of input key/value pairs.
type Environment struct {
	Name   string
	Inputs []InputValue
}

// InputValue is one key/value pair of an environment. Line is the zero-based
// line of the key in the manifest source, kept for go-to-definition.
type InputValue struct {
	Key   string
	Value string
	Line  int
}

// CLIInput is a key=value pair supplied on the command line. CLI inputs take
// precedence over environment values.
type CLIInput struct {
	Key   string
	Value string
}

// Load reads and parses the manifest at path.
func Load(path string) (*WorkspaceManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Parse(abs, data)
}

// Parse parses manifest content. Environment and key order follow the
// source text so repeated loads display identically.
func Parse(path string, data []byte) (*WorkspaceManifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m := &WorkspaceManifest{Path: path}

	if root.Kind == 0 || len(root.Content) == 0 {
		// Empty manifest: legal, just has no runbooks or environments.
		return m, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse manifest: expected mapping at top level, got %s", nodeKind(doc))
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "runbooks":
			if err := m.parseRunbooks(value); err != nil {
				return nil, err
			}
		case "environments":
			if err := m.parseEnvironments(value); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *WorkspaceManifest) parseRunbooks(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("runbooks section must be a list, got %s", nodeKind(node))
	}

	seen := make(map[string]bool)
	for _, entry := range node.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		var meta RunbookMetadata
		for i := 0; i+1 < len(entry.Content); i += 2 {
			switch entry.Content[i].Value {
			case "name":
				meta.Name = entry.Content[i+1].Value
			case "location":
				meta.Location = entry.Content[i+1].Value
			}
		}
		if meta.Name == "" {
			return fmt.Errorf("runbook entry at line %d is missing a name", entry.Line)
		}
		// Names are unique within a manifest; the first declaration wins.
		if seen[meta.Name] {
			m.Warnings = append(m.Warnings,
				fmt.Sprintf("duplicate runbook name %q at line %d ignored", meta.Name, entry.Line))
			continue
		}
		seen[meta.Name] = true
		m.Runbooks = append(m.Runbooks, meta)
	}
	return nil
}

func (m *WorkspaceManifest) parseEnvironments(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("environments section must be a mapping, got %s", nodeKind(node))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, bodyNode := node.Content[i], node.Content[i+1]
		env := Environment{Name: nameNode.Value}
		if bodyNode.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(bodyNode.Content); j += 2 {
				keyNode, valueNode := bodyNode.Content[j], bodyNode.Content[j+1]
				env.Inputs = append(env.Inputs, InputValue{
					Key:   keyNode.Value,
					Value: valueNode.Value,
					Line:  keyNode.Line - 1,
				})
			}
		}
		m.Environments = append(m.Environments, env)
	}
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}

// Dir returns the directory containing the manifest file.
func (m *WorkspaceManifest) Dir() string {
	return filepath.Dir(m.Path)
}

// FindRunbook looks up a runbook by name.
func (m *WorkspaceManifest) FindRunbook(name string) (RunbookMetadata, bool) {
	for _, rb := range m.Runbooks {
		if rb.Name == name {
			return rb, true
		}
	}
	return RunbookMetadata{}, false
}

// RunbookPath resolves a runbook location relative to the manifest directory.
func (m *WorkspaceManifest) RunbookPath(meta RunbookMetadata) string {
	if filepath.IsAbs(meta.Location) {
		return meta.Location
	}
	return filepath.Join(m.Dir(), meta.Location)
}

// Environment looks up an environment by name.
func (m *WorkspaceManifest) Environment(name string) (Environment, bool) {
	for _, env := range m.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return Environment{}, false
}

// EnvironmentNames returns declared environment names in declaration order.
func (m *WorkspaceManifest) EnvironmentNames() []string {
	names := make([]string, 0, len(m.Environments))
	for _, env := range m.Environments {
		names = append(names, env.Name)
	}
	return names
}

// InputKeys returns the set of input keys across all environments, sorted.
func (m *WorkspaceManifest) InputKeys() []string {
	set := make(map[string]struct{})
	for _, env := range m.Environments {
		for _, input := range env.Inputs {
			set[input.Key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value of key in the named environment.
func (e Environment) Lookup(key string) (InputValue, bool) {
	for _, input := range e.Inputs {
		if input.Key == key {
			return input, true
		}
	}
	return InputValue{}, false
}

// EffectiveInputs merges input sources for one environment selection.
// Precedence: CLI override > selected environment > global environment.
// Keys defined nowhere are simply absent from the result.
func (m *WorkspaceManifest) EffectiveInputs(environment string, cliInputs []CLIInput) map[string]string {
	effective := make(map[string]string)

	if global, ok := m.Environment(GlobalEnvironment); ok {
		for _, input := range global.Inputs {
			effective[input.Key] = input.Value
		}
	}

	if environment != "" && environment != GlobalEnvironment {
		if env, ok := m.Environment(environment); ok {
			for _, input := range env.Inputs {
				effective[input.Key] = input.Value
			}
		}
	}

	for _, cli := range cliInputs {
		effective[cli.Key] = cli.Value
	}

	return effective
}

// FindManifest walks up from dir looking for a manifest file, returning its
// path or "" when none exists up to the filesystem root.
func FindManifest(dir string) string {
	for {
		for _, name := range DefaultFilenames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// IsManifestFilename reports whether name (a bare filename) is a recognized
// manifest filename.
func IsManifestFilename(name string) bool {
	for _, candidate := range DefaultFilenames {
		if name == candidate {
			return true
		}
	}
	return false
}
