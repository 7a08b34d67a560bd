package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/jward/cppdomain"
	"github.com/jward/cppdomain/internal/store"
)

var (
	flagLimit  int
	flagOffset int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the documentation build",
	Long:  "Run queries against a built database. Lines are 1-based and columns 0-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")

	queryCmd.AddCommand(resolveCmd)
	queryCmd.AddCommand(anyCmd)
	queryCmd.AddCommand(objectsCmd)
	queryCmd.AddCommand(namesCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(unresolvedCmd)
	queryCmd.AddCommand(warningsCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(hoverCmd)
	queryCmd.AddCommand(declarationsCmd)
	queryCmd.AddCommand(documentsCmd)
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dbPath, _, err := existingDBPath()
	if err != nil {
		return nil, err
	}
	return store.NewStore(dbPath)
}

// openEngine opens the build for queries that need the symbol tree. The
// stored documents are replayed on first use.
func openEngine(cmd *cobra.Command) (*cppdomain.Engine, error) {
	dbPath, repoRoot, err := existingDBPath()
	if err != nil {
		return nil, err
	}
	return newEngine(cmd.Context(), repoRoot, dbPath)
}

func existingDBPath() (dbPath, repoRoot string, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot = findRepoRoot(cwd)
	dbPath = resolveDBPath(repoRoot)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", "", fmt.Errorf("database not found: %s (run 'cppdoc index' first)", dbPath)
	}
	return dbPath, repoRoot, nil
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// parsePosition parses <file> <line> <col> arguments.
func parsePosition(args []string) (file string, line, col int, err error) {
	file, err = resolveFilePath(args[0])
	if err != nil {
		return "", 0, 0, err
	}
	line, err = parseIntArg(args[1], "line")
	if err != nil {
		return "", 0, 0, err
	}
	col, err = parseIntArg(args[2], "col")
	if err != nil {
		return "", 0, 0, err
	}
	return file, line, col, nil
}

// paginate applies --limit and --offset and returns the page with the
// total count.
func paginate[T any](items []T) ([]T, *int) {
	total := len(items)
	limit := flagLimit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	start := min(max(flagOffset, 0), total)
	end := min(start+limit, total)
	return items[start:end], &total
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func warningsToCLI(ws []cppdomain.Warning) []CLIWarning {
	res := make([]CLIWarning, len(ws))
	for i, w := range ws {
		res[i] = CLIWarning{Docname: w.Docname, Line: w.Line, Type: w.Type, Message: w.Message}
	}
	return res
}

func locationsToCLI(locs []cppdomain.Location) []CLILocation {
	res := make([]CLILocation, len(locs))
	for i, l := range locs {
		res[i] = CLILocation{Docname: l.Docname, File: l.Path, Line: l.Line, Col: l.Col, EndCol: l.EndCol}
	}
	return res
}

func resolutionToCLI(r *cppdomain.Resolution, ws []cppdomain.Warning) CLIResolution {
	return CLIResolution{
		Docname:     r.Docname,
		Anchor:      r.Anchor,
		DisplayName: r.DisplayName,
		ObjectType:  r.ObjectType,
		Title:       r.Title,
		Role:        r.Role,
		Warnings:    warningsToCLI(ws),
	}
}

// --- Commands ---

var flagScope string

var resolveCmd = &cobra.Command{
	Use:   "resolve <role> <target>",
	Short: "Resolve a cross-reference as written in a role",
	Long:  "Resolves target the way :cpp:<role>:`target` would be resolved inside --scope, a qualified name such as ns::Class.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return outputError("resolve", err)
		}
		defer engine.Close()

		res, warnings, err := engine.ResolveXRef(args[0], args[1], flagScope)
		if err != nil {
			return outputError("resolve", err)
		}
		if res == nil {
			return outputError("resolve", fmt.Errorf("%s reference target not found: %s", args[0], args[1]))
		}
		return outputResult(CLIResult{Command: "resolve", Results: resolutionToCLI(res, warnings)})
	},
}

var anyCmd = &cobra.Command{
	Use:   "any <target>",
	Short: "Resolve a generic reference and report the role it resolves as",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return outputError("any", err)
		}
		defer engine.Close()

		res, err := engine.ResolveAny(args[0], flagScope)
		if err != nil {
			return outputError("any", err)
		}
		if res == nil {
			return outputError("any", fmt.Errorf("reference target not found: %s", args[0]))
		}
		return outputResult(CLIResult{Command: "any", Results: resolutionToCLI(res, nil)})
	},
}

func init() {
	resolveCmd.Flags().StringVar(&flagScope, "scope", "", "qualified name of the scope the reference is written in")
	anyCmd.Flags().StringVar(&flagScope, "scope", "", "qualified name of the scope the reference is written in")
}

var (
	flagDoc    string
	flagType   string
	flagPrefix string
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List the object inventory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("objects", err)
		}
		defer s.Close()

		objs, err := cppdomain.NewQueryBuilder(s).Objects(cppdomain.ObjectFilter{
			Docname:    flagDoc,
			ObjectType: flagType,
			NamePrefix: flagPrefix,
		})
		if err != nil {
			return outputError("objects", err)
		}
		res := make([]CLIObject, len(objs))
		for i, o := range objs {
			res[i] = CLIObject{
				Name:        o.Name,
				DisplayName: o.DisplayName,
				ObjectType:  o.ObjectType,
				Docname:     o.Docname,
				Anchor:      o.Anchor,
				Line:        o.Line,
				Signature:   o.Signature,
			}
		}
		page, total := paginate(res)
		return outputResult(CLIResult{Command: "objects", Results: page, TotalCount: total})
	},
}

func init() {
	objectsCmd.Flags().StringVar(&flagDoc, "doc", "", "only objects of this docname")
	objectsCmd.Flags().StringVar(&flagType, "type", "", "only objects of this type (class, function, ...)")
	objectsCmd.Flags().StringVar(&flagPrefix, "prefix", "", "only qualified names starting with this prefix")
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List qualified names with the document declaring them first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return outputError("names", err)
		}
		defer engine.Close()

		names, err := engine.Names()
		if err != nil {
			return outputError("names", err)
		}
		res := make([]CLIName, 0, len(names))
		for name, doc := range names {
			res = append(res, CLIName{Name: name, Docname: doc})
		}
		sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
		page, total := paginate(res)
		return outputResult(CLIResult{Command: "names", Results: page, TotalCount: total})
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Print the merged symbol tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return outputError("symbols", err)
		}
		defer engine.Close()

		dump, err := engine.Dump()
		if err != nil {
			return outputError("symbols", err)
		}
		return outputResult(CLIResult{Command: "symbols", Results: dump})
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <name>",
	Short: "Find the references resolved to a qualified name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("references", err)
		}
		defer s.Close()

		locs, err := cppdomain.NewQueryBuilder(s).ReferencesTo(args[0])
		if err != nil {
			return outputError("references", err)
		}
		page, total := paginate(locationsToCLI(locs))
		return outputResult(CLIResult{Command: "references", Results: page, TotalCount: total})
	},
}

var unresolvedCmd = &cobra.Command{
	Use:   "unresolved",
	Short: "List references whose target was not found",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("unresolved", err)
		}
		defer s.Close()

		refs, err := cppdomain.NewQueryBuilder(s).UnresolvedReferences()
		if err != nil {
			return outputError("unresolved", err)
		}
		res := make([]CLIReference, len(refs))
		for i, r := range refs {
			res[i] = CLIReference{Docname: r.Docname, Line: r.Line, Col: r.Col, Role: r.Role, Target: r.Target}
		}
		page, total := paginate(res)
		return outputResult(CLIResult{Command: "unresolved", Results: page, TotalCount: total})
	},
}

var warningsCmd = &cobra.Command{
	Use:   "warnings [docname...]",
	Short: "List build warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("warnings", err)
		}
		defer s.Close()

		ws, err := cppdomain.NewQueryBuilder(s).Warnings(args...)
		if err != nil {
			return outputError("warnings", err)
		}
		res := make([]CLIWarning, len(ws))
		for i, w := range ws {
			res[i] = CLIWarning{Docname: w.Docname, Line: w.Line, Type: w.Type, Message: w.Message}
		}
		page, total := paginate(res)
		return outputResult(CLIResult{Command: "warnings", Results: page, TotalCount: total})
	},
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the declaration a reference at a position links to",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, line, col, err := parsePosition(args)
		if err != nil {
			return outputError("definition", err)
		}
		s, err := openStore()
		if err != nil {
			return outputError("definition", err)
		}
		defer s.Close()

		locs, err := cppdomain.NewQueryBuilder(s).DefinitionAt(file, line, col)
		if err != nil {
			return outputError("definition", err)
		}
		return outputResult(CLIResult{Command: "definition", Results: locationsToCLI(locs)})
	},
}

var hoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <col>",
	Short: "Describe the declaration or reference at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, line, col, err := parsePosition(args)
		if err != nil {
			return outputError("hover", err)
		}
		s, err := openStore()
		if err != nil {
			return outputError("hover", err)
		}
		defer s.Close()

		h, err := cppdomain.NewQueryBuilder(s).HoverAt(file, line, col)
		if err != nil {
			return outputError("hover", err)
		}
		var result any
		if h != nil {
			result = CLIHover{
				Name:       h.Name,
				ObjectType: h.ObjectType,
				Signature:  h.Signature,
				Docname:    h.Docname,
				Line:       h.Line,
				Resolved:   h.Resolved,
			}
		}
		return outputResult(CLIResult{Command: "hover", Results: result})
	},
}

var flagHTML bool

var declarationsCmd = &cobra.Command{
	Use:   "declarations <docname>",
	Short: "Render the declarations of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return outputError("declarations", err)
		}
		defer engine.Close()

		out, ok, err := engine.Output(args[0])
		if err != nil {
			return outputError("declarations", err)
		}
		if !ok {
			return outputError("declarations", fmt.Errorf("unknown document: %s", args[0]))
		}
		res := make([]CLIDeclaration, 0, len(out.Declarations))
		for _, d := range out.Declarations {
			rendered, err := renderDeclaration(engine, d)
			if err != nil {
				return outputError("declarations", err)
			}
			res = append(res, declarationToCLI(d, rendered))
		}
		return outputResult(CLIResult{Command: "declarations", Results: res})
	},
}

func init() {
	declarationsCmd.Flags().BoolVar(&flagHTML, "html", false, "render signatures as HTML with linked names")
}

// renderDeclaration renders d as HTML with --html, styled for the terminal
// in text format, and as plain text otherwise.
func renderDeclaration(engine *cppdomain.Engine, d *cppdomain.Declaration) (string, error) {
	if flagHTML {
		if engine == nil {
			return cppdomain.UnlinkedHTML(d), nil
		}
		return engine.DeclarationHTML(d)
	}
	profile := termenv.Ascii
	if flagFormat == "text" {
		profile = termenv.EnvColorProfile()
	}
	return cppdomain.DeclarationTerminal(d, profile), nil
}

func declarationToCLI(d *cppdomain.Declaration, rendered string) CLIDeclaration {
	ids := d.IDs
	if ids == nil {
		ids = []string{}
	}
	return CLIDeclaration{
		Docname:    d.Docname,
		Line:       d.Line,
		Directive:  d.Directive,
		ObjectType: d.ObjectType,
		Name:       d.Name,
		IDs:        ids,
		IndexEntry: d.IndexEntry,
		Rendered:   rendered,
	}
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents of the build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("documents", err)
		}
		defer s.Close()

		docs, err := s.Documents()
		if err != nil {
			return outputError("documents", err)
		}
		res := make([]CLIDocument, len(docs))
		for i, d := range docs {
			res[i] = CLIDocument{Docname: d.Docname, Path: d.Path, Kind: d.Kind}
		}
		page, total := paginate(res)
		return outputResult(CLIResult{Command: "documents", Results: page, TotalCount: total})
	},
}
