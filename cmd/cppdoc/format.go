package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatLocationsText formats CLILocation results as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		file := loc.File
		if file == "" {
			file = loc.Docname
		}
		fmt.Fprintf(w, "%s:%d:%d\n", file, loc.Line, loc.Col)
	}
}

// formatObjectsText formats CLIObject results as aligned columns.
func formatObjectsText(w io.Writer, objs []CLIObject) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDOCNAME\tLINE\tANCHOR")
	for _, o := range objs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", o.Name, o.ObjectType, o.Docname, o.Line, o.Anchor)
	}
	tw.Flush()
}

func formatNamesText(w io.Writer, names []CLIName) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDOCNAME")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%s\n", n.Name, n.Docname)
	}
	tw.Flush()
}

func formatReferencesText(w io.Writer, refs []CLIReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCNAME\tLINE\tCOL\tROLE\tTARGET")
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.Docname, r.Line, r.Col, r.Role, r.Target)
	}
	tw.Flush()
}

// formatWarningsText prints warnings the way the build reports them.
func formatWarningsText(w io.Writer, warnings []CLIWarning) {
	for _, wr := range warnings {
		fmt.Fprintf(w, "%s:%d: WARNING: %s [%s]\n", wr.Docname, wr.Line, wr.Message, wr.Type)
	}
}

func formatResolutionText(w io.Writer, r CLIResolution) {
	fmt.Fprintf(w, "%s (%s)\n", r.DisplayName, r.ObjectType)
	fmt.Fprintf(w, "  %s.html#%s\n", r.Docname, r.Anchor)
	fmt.Fprintf(w, "  title: %s\n", r.Title)
	if r.Role != "" {
		fmt.Fprintf(w, "  role: %s\n", r.Role)
	}
	formatWarningsText(w, r.Warnings)
}

func formatHoverText(w io.Writer, h CLIHover) {
	if !h.Resolved {
		fmt.Fprintf(w, "%s (unresolved)\n", h.Name)
		return
	}
	if h.Signature != "" {
		fmt.Fprintln(w, h.Signature)
	}
	fmt.Fprintf(w, "C++ %s %s, declared in %s:%d\n", h.ObjectType, h.Name, h.Docname, h.Line)
}

func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	for i, d := range decls {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, d.Rendered)
		if len(d.IDs) > 0 {
			fmt.Fprintf(w, "  ids: %s\n", strings.Join(d.IDs, " "))
		}
		if d.IndexEntry != "" {
			fmt.Fprintf(w, "  index: %s\n", d.IndexEntry)
		}
	}
}

func formatDocumentsText(w io.Writer, docs []CLIDocument) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCNAME\tKIND\tPATH")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Docname, d.Kind, d.Path)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(result CLIResult) error {
	w := stdout

	switch v := result.Results.(type) {
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIObject:
		formatObjectsText(w, v)
	case []CLIName:
		formatNamesText(w, v)
	case []CLIReference:
		formatReferencesText(w, v)
	case []CLIWarning:
		formatWarningsText(w, v)
	case CLIResolution:
		formatResolutionText(w, v)
	case CLIHover:
		formatHoverText(w, v)
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case []CLIDocument:
		formatDocumentsText(w, v)
	case string:
		fmt.Fprint(w, v)
	case nil:
		// No output for nil results (e.g., hover with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLILocation:
		return len(r)
	case []CLIObject:
		return len(r)
	case []CLIName:
		return len(r)
	case []CLIReference:
		return len(r)
	case []CLIWarning:
		return len(r)
	case []CLIDeclaration:
		return len(r)
	case []CLIDocument:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
