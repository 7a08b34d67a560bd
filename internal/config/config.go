// Package config holds the per-build settings of the C++ domain.
package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jward/cppdomain/internal/parser"
)

// Config is the configuration surface of a build.
type Config struct {
	// IndexCommonPrefix lists name prefixes stripped from index entries.
	IndexCommonPrefix []string `json:"cpp_index_common_prefix"`
	// MaximumSignatureLineLength renders the parameters of longer
	// signatures one per line. 0 means unlimited.
	MaximumSignatureLineLength int      `json:"cpp_maximum_signature_line_length"`
	IDAttributes               []string `json:"cpp_id_attributes"`
	ParenAttributes            []string `json:"cpp_paren_attributes"`
	AddFunctionParentheses     bool     `json:"add_function_parentheses"`
	DebugLookup                bool     `json:"cpp_debug_lookup"`
	DebugShowTree              bool     `json:"cpp_debug_show_tree"`
	// ExternalRoots are namespaces of libraries that are not documented.
	// Unresolved references below them are not warned about.
	ExternalRoots []string `json:"cpp_external_roots"`
}

// Default returns the configuration used when no conf.risor is given.
func Default() Config {
	return Config{
		AddFunctionParentheses: true,
		ExternalRoots:          []string{"std"},
	}
}

// Normalize orders the common prefixes so the longest of two prefixes
// sharing a start is tried first.
func (c *Config) Normalize() {
	sort.Sort(sort.Reverse(sort.StringSlice(c.IndexCommonPrefix)))
}

// Validate rejects settings no build can use.
func (c Config) Validate() error {
	if c.MaximumSignatureLineLength < 0 {
		return fmt.Errorf("cpp_maximum_signature_line_length must not be negative, got %d", c.MaximumSignatureLineLength)
	}
	for _, r := range c.ExternalRoots {
		if r == "" {
			return fmt.Errorf("cpp_external_roots: empty namespace")
		}
	}
	return nil
}

// Parser returns the grammar settings for definition parsers.
func (c Config) Parser() parser.Config {
	cfg := parser.DefaultConfig()
	cfg.IDAttributes = c.IDAttributes
	cfg.ParenAttributes = c.ParenAttributes
	return cfg
}

// Hash identifies the settings that affect stored build results. Debug
// toggles are left out.
func (c Config) Hash() string {
	c.DebugLookup = false
	c.DebugShowTree = false
	data, _ := json.Marshal(c)
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
