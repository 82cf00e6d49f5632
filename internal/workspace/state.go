// Package workspace owns all shared state of the language server: the open
// documents, the loaded manifests, and the indexes tying runbooks to their
// owning manifest. Everything mutable lives behind this package; callers
// only ever receive owned snapshots.
package workspace

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"runedoc/internal/manifest"
)

var log = commonlog.GetLogger("workspace")

// DocumentSnapshot is an owned copy of an open document's state. Handlers
// work on snapshots so no store lock is held across rule evaluation.
type DocumentSnapshot struct {
	URI       string
	Path      string
	Content   string
	Version   int32
	IsRunbook bool
}

type document struct {
	uri       string
	path      string
	content   string
	version   int32
	isRunbook bool
}

// State is the process-wide workspace store. The document collection and
// the manifest collection are each guarded by their own reader-writer lock:
// any number of readers proceed together, a writer is exclusive, and no
// lock is held while rules run.
type State struct {
	docsMu sync.RWMutex
	docs   map[string]*document

	manifestsMu       sync.RWMutex
	manifests         map[string]*manifest.WorkspaceManifest
	runbookToManifest map[string]string
	nameToManifest    map[string]string

	envMu      sync.RWMutex
	currentEnv string

	// onManifestLoaded is invoked (outside any lock) after a manifest load
	// or reload succeeds. The watcher uses it to track manifest paths.
	hookMu           sync.RWMutex
	onManifestLoaded func(path string)
}

// NewState creates an empty workspace store.
func NewState() *State {
	return &State{
		docs:              make(map[string]*document),
		manifests:         make(map[string]*manifest.WorkspaceManifest),
		runbookToManifest: make(map[string]string),
		nameToManifest:    make(map[string]string),
	}
}

// OnManifestLoaded registers a callback fired after every successful
// manifest load or reload.
func (s *State) OnManifestLoaded(fn func(path string)) {
	s.hookMu.Lock()
	s.onManifestLoaded = fn
	s.hookMu.Unlock()
}

func (s *State) notifyManifestLoaded(path string) {
	s.hookMu.RLock()
	fn := s.onManifestLoaded
	s.hookMu.RUnlock()
	if fn != nil {
		fn(path)
	}
}

// OpenDocument registers a document with version 0. Opening a manifest
// parses and indexes it from the buffer; opening a runbook associates it
// with the nearest manifest on disk, loading that manifest on first sight.
func (s *State) OpenDocument(uri, content string) DocumentSnapshot {
	path := PathFromURI(uri)
	doc := &document{
		uri:       uri,
		path:      path,
		content:   content,
		version:   0,
		isRunbook: strings.HasSuffix(path, ".tx"),
	}

	s.docsMu.Lock()
	s.docs[uri] = doc
	// Snapshot under the lock: a concurrent UpdateDocument may already be
	// mutating doc the moment the lock is released.
	snapshot := doc.snapshot()
	s.docsMu.Unlock()

	if manifest.IsManifestFilename(filepath.Base(path)) {
		if err := s.indexManifestContent(path, []byte(content)); err != nil {
			log.Errorf("failed to index manifest %s: %s", path, err)
		}
	} else if doc.isRunbook {
		s.associateRunbook(path)
	}

	return snapshot
}

// UpdateDocument replaces a document's content and strictly increments its
// version. Updating an unopened document is a no-op.
func (s *State) UpdateDocument(uri, content string) (DocumentSnapshot, bool) {
	s.docsMu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.docsMu.Unlock()
		return DocumentSnapshot{}, false
	}
	doc.content = content
	doc.version++
	snapshot := doc.snapshot()
	s.docsMu.Unlock()

	if manifest.IsManifestFilename(filepath.Base(snapshot.Path)) {
		if err := s.indexManifestContent(snapshot.Path, []byte(content)); err != nil {
			log.Errorf("failed to re-index manifest %s: %s", snapshot.Path, err)
		}
	}

	return snapshot, true
}

// CloseDocument removes a document. Subsequent reads for the uri report not
// found. Loaded manifests stay loaded: closing the editor buffer does not
// unload workspace configuration.
func (s *State) CloseDocument(uri string) {
	s.docsMu.Lock()
	delete(s.docs, uri)
	s.docsMu.Unlock()
}

// Document returns an owned snapshot of an open document.
func (s *State) Document(uri string) (DocumentSnapshot, bool) {
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return DocumentSnapshot{}, false
	}
	return doc.snapshot(), true
}

// OpenDocuments returns a snapshot of every open document, in no
// particular order.
func (s *State) OpenDocuments() []DocumentSnapshot {
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	snapshots := make([]DocumentSnapshot, 0, len(s.docs))
	for _, doc := range s.docs {
		snapshots = append(snapshots, doc.snapshot())
	}
	return snapshots
}

func (d *document) snapshot() DocumentSnapshot {
	return DocumentSnapshot{
		URI:       d.uri,
		Path:      d.path,
		Content:   d.content,
		Version:   d.version,
		IsRunbook: d.isRunbook,
	}
}

// LoadManifest reads, parses and indexes the manifest at path. On failure
// the previously loaded manifest, if any, keeps being served.
func (s *State) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return s.indexManifestContent(path, data)
}

// ReloadManifest replaces a loaded manifest wholesale.
func (s *State) ReloadManifest(path string) error {
	return s.LoadManifest(path)
}

// indexManifestContent parses content and swaps the manifest and its index
// entries under one write section, so readers never observe a half-updated
// index.
func (s *State) indexManifestContent(path string, content []byte) error {
	m, err := manifest.Parse(path, content)
	if err != nil {
		return err
	}

	s.manifestsMu.Lock()
	// Drop index entries of the previous version of this manifest.
	for runbookPath, manifestPath := range s.runbookToManifest {
		if manifestPath == path {
			delete(s.runbookToManifest, runbookPath)
		}
	}
	for name, manifestPath := range s.nameToManifest {
		if manifestPath == path {
			delete(s.nameToManifest, name)
		}
	}
	s.manifests[path] = m
	for _, rb := range m.Runbooks {
		s.runbookToManifest[m.RunbookPath(rb)] = path
		s.nameToManifest[rb.Name] = path
	}
	s.manifestsMu.Unlock()

	for _, warning := range m.Warnings {
		log.Warningf("manifest %s: %s", path, warning)
	}
	log.Infof("indexed manifest %s (%d runbooks, %d environments)",
		path, len(m.Runbooks), len(m.Environments))
	s.notifyManifestLoaded(path)
	return nil
}

// associateRunbook ties a runbook path to the nearest manifest on disk,
// loading the manifest on first sight. Runbooks not listed in the manifest
// are still associated; the diagnostics path reports them as unlisted.
func (s *State) associateRunbook(path string) {
	s.manifestsMu.RLock()
	_, known := s.runbookToManifest[path]
	s.manifestsMu.RUnlock()
	if known {
		return
	}

	manifestPath := manifest.FindManifest(filepath.Dir(path))
	if manifestPath == "" {
		return
	}

	s.manifestsMu.RLock()
	_, loaded := s.manifests[manifestPath]
	s.manifestsMu.RUnlock()
	if !loaded {
		if err := s.LoadManifest(manifestPath); err != nil {
			// Degrade to single-file validation for this document.
			log.Errorf("manifest %s failed to load: %s", manifestPath, err)
			return
		}
	}

	s.manifestsMu.Lock()
	if _, ok := s.runbookToManifest[path]; !ok {
		s.runbookToManifest[path] = manifestPath
	}
	s.manifestsMu.Unlock()
}

// Manifest returns the loaded manifest at path.
func (s *State) Manifest(path string) (*manifest.WorkspaceManifest, bool) {
	s.manifestsMu.RLock()
	defer s.manifestsMu.RUnlock()
	m, ok := s.manifests[path]
	return m, ok
}

// ManifestForDocument returns the manifest owning the document, or nil.
func (s *State) ManifestForDocument(uri string) *manifest.WorkspaceManifest {
	path := PathFromURI(uri)
	s.manifestsMu.RLock()
	defer s.manifestsMu.RUnlock()
	manifestPath, ok := s.runbookToManifest[path]
	if !ok {
		return nil
	}
	return s.manifests[manifestPath]
}

// ManifestForRunbook returns the manifest declaring the named runbook, or
// nil.
func (s *State) ManifestForRunbook(name string) *manifest.WorkspaceManifest {
	s.manifestsMu.RLock()
	defer s.manifestsMu.RUnlock()
	manifestPath, ok := s.nameToManifest[name]
	if !ok {
		return nil
	}
	return s.manifests[manifestPath]
}

// ManifestPaths returns the paths of all loaded manifests.
func (s *State) ManifestPaths() []string {
	s.manifestsMu.RLock()
	defer s.manifestsMu.RUnlock()
	paths := make([]string, 0, len(s.manifests))
	for path := range s.manifests {
		paths = append(paths, path)
	}
	return paths
}

// SetEnvironment records the editor-selected environment. Empty clears it.
func (s *State) SetEnvironment(name string) {
	s.envMu.Lock()
	s.currentEnv = name
	s.envMu.Unlock()
}

// CurrentEnvironment returns the editor-selected environment, if any.
func (s *State) CurrentEnvironment() string {
	s.envMu.RLock()
	defer s.envMu.RUnlock()
	return s.currentEnv
}

// PathFromURI converts a file:// uri into a filesystem path. Anything that
// does not look like a file uri is returned as-is.
func PathFromURI(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	if unescaped, err := url.PathUnescape(parsed.Path); err == nil {
		return unescaped
	}
	return parsed.Path
}

// URIFromPath converts a filesystem path into a file:// uri.
func URIFromPath(path string) string {
	return "file://" + filepath.ToSlash(path)
}
