package workspace

import (
	"path/filepath"
	"strings"

	"runedoc/internal/manifest"
)

// Resolution is the outcome of resolving a document against the workspace:
// which manifest owns it, which environment applies, and whether the
// document is missing from the manifest's runbook list.
type Resolution struct {
	Manifest    *manifest.WorkspaceManifest
	Environment string
	Unlisted    bool
}

// Resolve determines the owning manifest and the selected environment for a
// document. The environment comes from the explicit parameter if given,
// else from the editor-selected environment, else from the filename
// convention "<base>.<env>.tx".
//
// A nil Manifest in the result selects single-file validation; the absence
// of a manifest is not a fault.
func (s *State) Resolve(uri string, explicitEnv string) Resolution {
	path := PathFromURI(uri)

	m := s.ManifestForDocument(uri)
	if m == nil {
		// The document may have been opened before its manifest existed.
		s.associateRunbook(path)
		m = s.ManifestForDocument(uri)
	}

	env := explicitEnv
	if env == "" {
		env = s.CurrentEnvironment()
	}
	if env == "" {
		env = EnvironmentFromFilename(filepath.Base(path))
	}

	res := Resolution{Manifest: m, Environment: env}
	if m != nil {
		res.Unlisted = !manifestListsPath(m, path)
	}
	return res
}

func manifestListsPath(m *manifest.WorkspaceManifest, path string) bool {
	for _, rb := range m.Runbooks {
		if m.RunbookPath(rb) == path {
			return true
		}
	}
	return false
}

// EnvironmentFromFilename infers the environment from a runbook filename.
// The last dot-separated segment before the ".tx" extension names the
// environment: "config.aws.prod.tx" selects "prod". A filename with fewer
// than two segments, or a different extension, selects none.
func EnvironmentFromFilename(name string) string {
	if !strings.HasSuffix(name, ".tx") {
		return ""
	}
	base := strings.TrimSuffix(name, ".tx")
	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}
