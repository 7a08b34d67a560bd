package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLILocation is a position in a document.
type CLILocation struct {
	Docname string `json:"docname"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	EndCol  int    `json:"end_col,omitempty"`
}

// CLIObject is an inventory entry.
type CLIObject struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ObjectType  string `json:"object_type"`
	Docname     string `json:"docname"`
	Anchor      string `json:"anchor"`
	Line        int    `json:"line"`
	Signature   string `json:"signature,omitempty"`
}

// CLIName maps a qualified name to the document declaring it first.
type CLIName struct {
	Name    string `json:"name"`
	Docname string `json:"docname"`
}

// CLIReference is a role occurrence that did not resolve.
type CLIReference struct {
	Docname string `json:"docname"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Role    string `json:"role"`
	Target  string `json:"target"`
}

// CLIWarning is a build warning.
type CLIWarning struct {
	Docname string `json:"docname"`
	Line    int    `json:"line"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CLIResolution is the target of a cross-reference.
type CLIResolution struct {
	Docname     string       `json:"docname"`
	Anchor      string       `json:"anchor"`
	DisplayName string       `json:"display_name"`
	ObjectType  string       `json:"object_type"`
	Title       string       `json:"title"`
	Role        string       `json:"role,omitempty"`
	Warnings    []CLIWarning `json:"warnings,omitempty"`
}

// CLIHover describes the declaration at a position.
type CLIHover struct {
	Name       string `json:"name"`
	ObjectType string `json:"object_type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	Docname    string `json:"docname,omitempty"`
	Line       int    `json:"line,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// CLIDeclaration is one signature of a declaration directive.
type CLIDeclaration struct {
	Docname    string   `json:"docname,omitempty"`
	Line       int      `json:"line,omitempty"`
	Directive  string   `json:"directive"`
	ObjectType string   `json:"object_type"`
	Name       string   `json:"name"`
	IDs        []string `json:"ids"`
	IndexEntry string   `json:"index_entry,omitempty"`
	// Rendered is the signature as text, HTML or styled for the terminal.
	Rendered string `json:"rendered"`
}

// CLIDocument is a stored document.
type CLIDocument struct {
	Docname string `json:"docname"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
}
