package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/jward/cppdomain"
	"github.com/jward/cppdomain/internal/config"
	"github.com/jward/cppdomain/internal/lsp"
	"github.com/jward/cppdomain/internal/runtime"
)

var version = "dev"

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagWorkers int
	flagVerbose int
)

// stdout is where results are written.
var stdout io.Writer = os.Stdout

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cppdoc",
	Short:         "Cross-reference C++ API documentation",
	Long:          "cppdoc reads C++ declaration directives from reST documents and headers, resolves their cross-references and writes the build to a SQLite database for queries and editors.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		commonlog.Configure(flagVerbose, nil)
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .cppdoc/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration script (default: cppdoc.risor in the repo root, if present)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker goroutines, 0 for one per CPU")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "log more, repeat for more detail")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(lspCmd)
}

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build the documentation below a directory",
	Long:  "Reads every document and header below the directory, merges their declarations, resolves cross-references and writes the results to the SQLite database. Unchanged documents are not read again.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and rebuild from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}

	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	engine, err := newEngine(cmd.Context(), repoRoot, dbPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.IndexDirectory(cmd.Context(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	docs, err := engine.Documents()
	if err != nil {
		return err
	}
	warnings, err := engine.Warnings()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s\n", w)
	}

	fmt.Fprintf(os.Stderr, "Built %d documents in %s with %d warnings\n",
		len(docs), time.Since(start).Round(time.Millisecond), len(warnings))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Serve hover and go-to-definition over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		repoRoot := findRepoRoot(cwd)
		dbPath := resolveDBPath(repoRoot)
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return err
		}
		engine, err := newEngine(cmd.Context(), repoRoot, dbPath)
		if err != nil {
			return err
		}
		defer engine.Close()
		return lsp.NewServer(engine, version).RunStdio()
	},
}

// newEngine opens the build at dbPath with docnames relative to repoRoot.
func newEngine(ctx context.Context, repoRoot, dbPath string) (*cppdomain.Engine, error) {
	cfg, err := loadConfig(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	engine, err := cppdomain.New(dbPath,
		cppdomain.WithRoot(repoRoot),
		cppdomain.WithConfig(cfg),
		cppdomain.WithWorkers(flagWorkers),
		cppdomain.WithLogger(commonlog.GetLogger("cppdoc")),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// loadConfig evaluates the --config script, or cppdoc.risor in the repo
// root when the flag is not given. Without a script the defaults apply.
func loadConfig(ctx context.Context, repoRoot string) (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = filepath.Join(repoRoot, "cppdoc.risor")
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := runtime.LoadConfig(ctx, path)
	if err != nil {
		return cfg, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".cppdoc", "index.db")
}
