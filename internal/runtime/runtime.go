package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/config"
)

// Runtime embeds a Risor VM for configuration scripts. Scripts see the
// builtins parse_signature and log, and may import helper modules from
// the directory (or fs.FS) they are loaded from.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	log        commonlog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the log builtin.
func WithRuntimeLogger(l commonlog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.log = l
	}
}

// NewRuntime creates a Runtime loading scripts relative to scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		log:        commonlog.GetLogger("cppdomain.config"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and evaluates a Risor script and returns the value of
// its final expression.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (object.Object, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource evaluates Risor source code directly. Useful for testing
// without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse_signature": makeParseSignatureFn(),
		"log":             makeLogFn(r.log),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

// LoadConfig evaluates the configuration script at path. Its final
// expression must be a map of cpp_* settings; settings it leaves out keep
// their defaults.
func LoadConfig(ctx context.Context, path string) (config.Config, error) {
	r := NewRuntime(filepath.Dir(path))
	return r.LoadConfig(ctx, filepath.Base(path))
}

// LoadConfig evaluates a configuration script relative to the Runtime's
// script source.
func (r *Runtime) LoadConfig(ctx context.Context, path string) (config.Config, error) {
	result, err := r.RunScript(ctx, path, nil)
	if err != nil {
		return config.Config{}, err
	}
	return ConfigFromObject(result)
}

// ConfigFromObject converts a script result into a Config.
func ConfigFromObject(obj object.Object) (config.Config, error) {
	cfg := config.Default()
	m, ok := obj.(*object.Map)
	if !ok {
		return cfg, fmt.Errorf("config: script must end with a map, got %s", obj.Type())
	}
	values, _ := m.Interface().(map[string]any)
	for key, v := range values {
		var err error
		switch key {
		case "cpp_index_common_prefix":
			cfg.IndexCommonPrefix, err = stringList(key, v)
		case "cpp_maximum_signature_line_length":
			cfg.MaximumSignatureLineLength, err = intValue(key, v)
		case "cpp_id_attributes":
			cfg.IDAttributes, err = stringList(key, v)
		case "cpp_paren_attributes":
			cfg.ParenAttributes, err = stringList(key, v)
		case "add_function_parentheses":
			cfg.AddFunctionParentheses, err = boolValue(key, v)
		case "cpp_debug_lookup":
			cfg.DebugLookup, err = boolValue(key, v)
		case "cpp_debug_show_tree":
			cfg.DebugShowTree, err = boolValue(key, v)
		case "cpp_external_roots":
			cfg.ExternalRoots, err = stringList(key, v)
		default:
			err = fmt.Errorf("config: unknown setting %q", key)
		}
		if err != nil {
			return cfg, err
		}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func stringList(key string, v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("config: %s must be a list of strings, got %T", key, v)
	}
	res := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("config: %s must be a list of strings, got element %T", key, it)
		}
		res = append(res, s)
	}
	return res, nil
}

func intValue(key string, v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("config: %s must be an int, got %T", key, v)
}

func boolValue(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("config: %s must be a bool, got %T", key, v)
	}
	return b, nil
}
