package cppdomain

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/config"
	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/runtime"
	"github.com/jward/cppdomain/internal/store"
	"github.com/jward/cppdomain/internal/symbol"
)

// Metadata keys.
const (
	metaConfigHash    = "config_hash"
	metaInventoryHash = "inventory_hash"
)

// Engine is one build of the C++ domain: the merged symbol tree of every
// document, the names inventory and the per-document outputs, persisted to
// a SQLite store.
//
// Documents are read into private shard trees, possibly in parallel, and
// merged in docname order. References are resolved against the merged
// tree only.
type Engine struct {
	mu sync.RWMutex

	store *store.Store
	cfg   config.Config
	log   commonlog.Logger

	root *symbol.Symbol
	// names maps qualified names to the document declaring them first
	names map[string]string
	docs  map[string]*docState

	rootDir     string
	useParallel bool
	workers     int

	loaded bool
	// fullPersist forces every document to be written on the next rebuild
	fullPersist bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the build configuration. The default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithParallel controls parallel reading and resolution. When true
// (default), documents are read into shards and resolved by a worker
// pool. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers caps the worker pool. 0 means one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLogger sets the logger build warnings and traces go to.
func WithLogger(log commonlog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRoot makes docnames relative to dir.
func WithRoot(dir string) Option {
	return func(e *Engine) {
		e.rootDir = dir
	}
}

// New creates an Engine backed by a SQLite database at dbPath. Documents
// stored by an earlier build are replayed on first use.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         config.Default(),
		log:         commonlog.GetLogger("cppdomain"),
		names:       map[string]string{},
		docs:        map[string]*docState{},
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg.Normalize()
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cppdomain: %w", err)
	}
	e.root = e.newRoot()

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cppdomain: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("cppdomain: migrate: %w", err)
	}
	e.store = s
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Config returns the build configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

func (e *Engine) newRoot() *symbol.Symbol {
	root := symbol.New()
	root.SetDebugLookup(e.cfg.DebugLookup)
	return root
}

// ConfigChanged reports whether the stored build was made with different
// settings. The next build then rewrites every document.
func (e *Engine) ConfigChanged() bool {
	stored, err := e.store.GetMetadata(metaConfigHash)
	if err != nil || stored == "" {
		return true
	}
	return stored != e.cfg.Hash()
}

// Source is the text of one document.
type Source struct {
	Docname string
	Path    string
	// Kind is "directives" or "header".
	Kind string
	Text []byte
}

// docState is everything the build knows about one document.
type docState struct {
	Source
	id   int64
	hash string
	doc  *document.Document

	// read phase
	names        map[string]string
	decls        []*Declaration
	refs         []*pendingRef
	exprs        []*Expression
	aliases      []*pendingAlias
	readWarnings []Warning

	// merge phase
	mergeWarnings []Warning
	// peers are the documents whose declarations were kept over
	// duplicates reported here
	peers map[string]bool

	// resolve phase
	resolved        bool
	references      []*Reference
	aliasOut        []*Alias
	resolveWarnings []Warning
}

func (st *docState) resetRead() {
	st.names = map[string]string{}
	st.decls = nil
	st.refs = nil
	st.exprs = nil
	st.aliases = nil
	st.readWarnings = nil
	st.mergeWarnings = nil
	st.peers = nil
	st.resetResolve()
}

func (st *docState) resetResolve() {
	st.resolved = false
	st.references = nil
	st.aliasOut = nil
	st.resolveWarnings = nil
}

func (st *docState) warnings() []Warning {
	var res []Warning
	res = append(res, st.readWarnings...)
	res = append(res, st.mergeWarnings...)
	res = append(res, st.resolveWarnings...)
	sortWarnings(res)
	return res
}

// Docname returns the docname a file is recorded under, or ("", false)
// when the file is not a document.
func (e *Engine) Docname(path string) (string, bool) {
	kind, ok := runtime.KindForFile(path)
	if !ok {
		return "", false
	}
	return e.docname(path, kind), true
}

func (e *Engine) docname(path, kind string) string {
	name := path
	if e.rootDir != "" {
		if rel, err := filepath.Rel(e.rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
	}
	name = filepath.ToSlash(name)
	if kind == runtime.KindDirectives {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func parseSource(ctx context.Context, src Source) (*document.Document, error) {
	if src.Kind != runtime.KindHeader {
		return document.Parse(src.Docname, string(src.Text)), nil
	}
	lang, ok := runtime.LanguageForFile(src.Path)
	if !ok {
		lang = "cpp"
	}
	return runtime.ScanHeader(ctx, src.Docname, src.Text, lang)
}

// IndexFiles reads the given files into the build. Files that are neither
// directive documents nor headers are ignored, unchanged ones (same
// content hash) are skipped.
//
// Errors on individual files are collected; the other files are still
// indexed.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	var (
		sources []Source
		errs    []error
	)
	for _, path := range paths {
		kind, ok := runtime.KindForFile(path)
		if !ok {
			continue
		}
		text, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		sources = append(sources, Source{Docname: e.docname(path, kind), Path: path, Kind: kind, Text: text})
	}
	if err := e.Update(ctx, sources...); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// Update brings the build up to date with the given sources. It is what
// IndexFiles does after reading the files, and what an editor calls with
// unsaved text.
func (e *Engine) Update(ctx context.Context, sources ...Source) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	// ---- Phase A: Serial preparation ----
	changed := map[string]*docState{}
	for _, src := range sources {
		st, skip, err := e.prepare(src)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", src.Docname, err)
		}
		if !skip {
			changed[st.Docname] = st
		}
	}
	if len(changed) == 0 && !e.fullPersist {
		return nil
	}
	return e.rebuild(ctx, changed)
}

// prepare drops the previous version of a changed document from the tree
// and the store and records the new one. skip is true for unchanged
// documents.
func (e *Engine) prepare(src Source) (*docState, bool, error) {
	hash := store.ContentHash(src.Text)
	if old := e.docs[src.Docname]; old != nil && old.hash == hash && old.Path == src.Path {
		if err := e.store.TouchDocument(old.id, time.Now()); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	if err := e.clearDocument(src.Docname); err != nil {
		return nil, false, err
	}

	st := &docState{Source: src, hash: hash}
	id, err := e.store.InsertDocument(&store.Document{
		Docname:     src.Docname,
		Path:        src.Path,
		Kind:        src.Kind,
		Hash:        hash,
		Source:      string(src.Text),
		LastIndexed: time.Now(),
	})
	if err != nil {
		return nil, false, err
	}
	st.id = id
	e.docs[src.Docname] = st
	return st, false, nil
}

// clearDocument removes a document from the tree, the names inventory and
// the store.
func (e *Engine) clearDocument(docname string) error {
	old := e.docs[docname]
	if old == nil {
		return nil
	}
	e.dumpTree("before clear_doc " + docname)
	e.root.ClearDoc(docname)
	e.dumpTree("after clear_doc " + docname)
	delete(e.docs, docname)
	if err := e.store.DeleteDocument(old.id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// RemoveDocuments drops documents from the build.
func (e *Engine) RemoveDocuments(ctx context.Context, docnames ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	for _, name := range docnames {
		if err := e.clearDocument(name); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return e.rebuild(ctx, map[string]*docState{})
}

// rebuild reads the changed documents into the tree, resolves what the
// change may affect and writes the affected documents to the store.
func (e *Engine) rebuild(ctx context.Context, changed map[string]*docState) error {
	// Documents that lost a duplicate against a document that is gone now
	// get their declarations back by being read again.
	for _, st := range e.docs {
		if _, ok := changed[st.Docname]; ok {
			continue
		}
		for peer := range st.peers {
			if _, ok := e.docs[peer]; !ok || changed[peer] != nil {
				e.root.ClearDoc(st.Docname)
				changed[st.Docname] = st
				break
			}
		}
	}

	states := sortedStates(changed)
	dirty := map[string]bool{}
	err := e.load(ctx, states, dirty)

	objects := e.objects()
	inventory := e.inventoryHash(objects)
	stored, metaErr := e.store.GetMetadata(metaInventoryHash)
	if metaErr != nil {
		return metaErr
	}
	full := e.fullPersist || stored != inventory

	var resolveSet, persistSet []*docState
	for _, st := range sortedStates(e.docs) {
		_, isChanged := changed[st.Docname]
		persist := full || isChanged || dirty[st.Docname]
		if persist || !st.resolved {
			resolveSet = append(resolveSet, st)
		}
		if persist {
			persistSet = append(persistSet, st)
		}
	}
	if rerr := e.resolveAndPersist(ctx, resolveSet, persistSet, objects); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return err
	}
	if err := e.store.SetMetadata(metaInventoryHash, inventory); err != nil {
		return err
	}
	if err := e.store.SetMetadata(metaConfigHash, e.cfg.Hash()); err != nil {
		return err
	}
	e.fullPersist = false
	return nil
}

// load reads states into shards and merges them into the tree in order.
// Documents holding declarations that lose against the new ones are added
// to dirty.
func (e *Engine) load(ctx context.Context, states []*docState, dirty map[string]bool) error {
	// ---- Phase B: Shards, possibly parallel ----
	shards, err := e.readShards(ctx, states)

	// ---- Phase C: Serial merge ----
	for i := range states {
		if shards[i] == nil {
			continue
		}
		conflicts := e.root.MergeWith(shards[i], nil)
		for _, c := range conflicts {
			e.recordConflict(c, dirty)
		}
	}
	e.dumpTree("after merge")

	e.names = map[string]string{}
	for _, st := range sortedStates(e.docs) {
		for name, docname := range st.names {
			if _, ok := e.names[name]; !ok {
				e.names[name] = docname
			}
		}
	}
	// resolution reads ids from many goroutines
	for _, s := range e.root.All() {
		if s.Declaration != nil {
			s.Declaration.NewestID()
		}
	}
	return err
}

func (e *Engine) recordConflict(c *symbol.DuplicateSymbolError, dirty map[string]bool) {
	st := e.docs[c.Docname]
	if st == nil {
		return
	}
	w := Warning{
		Docname: c.Docname,
		Line:    c.Line,
		Type:    WarnDuplicate,
		Subtype: "cpp",
		Message: fmt.Sprintf("Duplicate C++ declaration, also defined at %s:%d.\nDeclaration is '.. cpp:%s:: %s'.",
			c.Symbol.Docname, c.Symbol.Line, c.Declaration.DirectiveType, ast.String(c.Declaration)),
	}
	e.log.Warning(w.String())
	st.mergeWarnings = append(st.mergeWarnings, w)
	if st.peers == nil {
		st.peers = map[string]bool{}
	}
	st.peers[c.Symbol.Docname] = true
	dirty[c.Docname] = true
}

func (e *Engine) dumpTree(when string) {
	if e.cfg.DebugShowTree {
		e.log.Debugf("symbol tree %s:\n%s", when, e.root.Dump(1))
	}
}

func sortedStates(m map[string]*docState) []*docState {
	res := make([]*docState, 0, len(m))
	for _, st := range m {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Docname < res[j].Docname })
	return res
}

func (e *Engine) inventoryHash(objects []Object) string {
	ids := map[int64]string{}
	rows := make([]*store.Object, 0, len(objects))
	for _, o := range objects {
		st := e.docs[o.Docname]
		if st == nil {
			continue
		}
		ids[st.id] = st.Docname
		rows = append(rows, &store.Object{DocumentID: st.id, Name: o.Name, ObjectType: o.ObjectType, Anchor: o.Anchor})
	}
	return store.ComputeInventoryHash(rows, ids)
}

// ensureLoaded replays the documents of the stored build on first use.
// Caller holds e.mu for writing.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	e.loaded = true
	e.fullPersist = e.ConfigChanged()

	stored, err := e.store.Documents()
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}
	states := make([]*docState, len(stored))
	for i, d := range stored {
		st := &docState{
			Source: Source{Docname: d.Docname, Path: d.Path, Kind: d.Kind, Text: []byte(d.Source)},
			id:     d.ID,
			hash:   d.Hash,
		}
		states[i] = st
		e.docs[st.Docname] = st
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Docname < states[j].Docname })
	e.log.Infof("replaying %d stored documents", len(states))
	if err := e.load(ctx, states, map[string]bool{}); err != nil {
		e.log.Warningf("replay: %s", err)
	}

	var persist []*docState
	if e.fullPersist {
		persist = states
	}
	if err := e.resolveAndPersist(ctx, states, persist, e.objects()); err != nil {
		return err
	}
	if e.fullPersist {
		e.fullPersist = false
		if err := e.store.SetMetadata(metaInventoryHash, e.inventoryHash(e.objects())); err != nil {
			return err
		}
		return e.store.SetMetadata(metaConfigHash, e.cfg.Hash())
	}
	return nil
}

// Load replays the stored build. Every other method loads on first use as
// well; Load only makes the moment explicit.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureLoaded(ctx)
}

// rlock returns with the read lock held, loading the stored build first
// if that has not happened yet.
func (e *Engine) rlock() error {
	e.mu.RLock()
	if e.loaded {
		return nil
	}
	e.mu.RUnlock()
	if err := e.Load(context.Background()); err != nil {
		return err
	}
	e.mu.RLock()
	return nil
}

// skipDirs are directories that are never indexed.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"_build":       true,
	"build":        true,
}

// IndexDirectory indexes every document under root. If root is inside a
// git repository, git ls-files is used so .gitignore is respected;
// otherwise the tree is walked, skipping hidden and build directories.
// Stored documents under root whose files are gone are removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.log.Debugf("git ls-files in %s: %s", root, err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	if err := e.IndexFiles(ctx, paths); err != nil {
		return err
	}
	return e.removeMissing(ctx, root, paths)
}

func (e *Engine) removeMissing(ctx context.Context, root string, paths []string) error {
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		present[p] = true
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	var gone []string
	e.mu.RLock()
	for _, st := range e.docs {
		if strings.HasPrefix(st.Path, prefix) && !present[st.Path] {
			gone = append(gone, st.Docname)
		}
	}
	e.mu.RUnlock()
	if len(gone) == 0 {
		return nil
	}
	sort.Strings(gone)
	return e.RemoveDocuments(ctx, gone...)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but
// not ignored) documents under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := runtime.KindForFile(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers documents by walking the filesystem.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := runtime.KindForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// Dump renders the merged symbol tree.
func (e *Engine) Dump() (string, error) {
	if err := e.rlock(); err != nil {
		return "", err
	}
	defer e.mu.RUnlock()
	return e.root.Dump(0), nil
}
