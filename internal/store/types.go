package store

import "time"

// Document is a source file read into the build. Kind is "directives"
// for directive documents and "header" for scanned C/C++ headers.
type Document struct {
	ID          int64
	Docname     string
	Path        string
	Kind        string
	Hash        string
	Source      string
	LastIndexed time.Time
}

// Object is one entry of the object inventory: a declaration with its
// anchor.
type Object struct {
	ID          int64
	DocumentID  int64
	Name        string
	DisplayName string
	ObjectType  string
	Anchor      string
	Priority    int
	Line        int
	Signature   string
}

// Reference is a role occurrence and, when resolved, its target.
type Reference struct {
	ID         int64
	DocumentID int64
	Line       int
	Col        int
	EndCol     int
	Role       string
	Target     string
	Title      string

	Resolved      bool
	TargetDocname string
	TargetAnchor  string
	TargetName    string
	TargetType    string
}

// Warning is a build diagnostic.
type Warning struct {
	ID         int64
	DocumentID int64
	Line       int
	Type       string
	Subtype    string
	Message    string
}
