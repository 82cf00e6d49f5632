package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"runedoc/internal/workspace"
)

func TestEnvironmentFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"config.aws.prod.tx", "prod"},
		{"config.dev.tx", "dev"},
		{"main.tx", ""},
		{"config.txt", ""},
		{"deploy.production.tx", "production"},
		{".tx", ""},
	}
	for _, tt := range tests {
		if got := workspace.EnvironmentFromFilename(tt.name); got != tt.want {
			t.Errorf("EnvironmentFromFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveEnvironmentPrecedence(t *testing.T) {
	root, _ := writeWorkspace(t, workspaceManifest)
	runbookPath := filepath.Join(root, "runbooks", "deploy.dev.tx")
	if err := os.WriteFile(runbookPath, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	state := workspace.NewState()
	uri := workspace.URIFromPath(runbookPath)
	state.OpenDocument(uri, "x = 1\n")

	// Filename inference is the floor.
	if res := state.Resolve(uri, ""); res.Environment != "dev" {
		t.Errorf("filename environment = %q, want dev", res.Environment)
	}

	// Editor selection wins over the filename.
	state.SetEnvironment("staging")
	if res := state.Resolve(uri, ""); res.Environment != "staging" {
		t.Errorf("selected environment = %q, want staging", res.Environment)
	}

	// Explicit parameter wins over everything.
	if res := state.Resolve(uri, "prod"); res.Environment != "prod" {
		t.Errorf("explicit environment = %q, want prod", res.Environment)
	}
}

func TestResolveWithoutManifest(t *testing.T) {
	state := workspace.NewState()
	// TempDir has no manifest anywhere above it in practice, but use a
	// path under the test temp root to be safe.
	path := filepath.Join(t.TempDir(), "solo.tx")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	uri := workspace.URIFromPath(path)
	state.OpenDocument(uri, "x = 1\n")

	res := state.Resolve(uri, "")
	if res.Manifest != nil {
		t.Error("no manifest on disk should resolve to single-file mode")
	}
	if res.Unlisted {
		t.Error("Unlisted only applies when a manifest exists")
	}
}

func TestResolveFlagsUnlistedRunbook(t *testing.T) {
	root, _ := writeWorkspace(t, workspaceManifest)

	listed := filepath.Join(root, "runbooks", "deploy.tx")
	unlisted := filepath.Join(root, "runbooks", "scratch.tx")
	for _, p := range []string{listed, unlisted} {
		if err := os.WriteFile(p, []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	state := workspace.NewState()
	listedURI := workspace.URIFromPath(listed)
	unlistedURI := workspace.URIFromPath(unlisted)
	state.OpenDocument(listedURI, "x = 1\n")
	state.OpenDocument(unlistedURI, "x = 1\n")

	if res := state.Resolve(listedURI, ""); res.Manifest == nil || res.Unlisted {
		t.Errorf("listed runbook: %+v", res)
	}
	if res := state.Resolve(unlistedURI, ""); res.Manifest == nil || !res.Unlisted {
		t.Errorf("unlisted runbook should resolve with Unlisted set: %+v", res)
	}
}
