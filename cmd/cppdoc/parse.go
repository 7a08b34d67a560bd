package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/cppdomain"
)

var parseCmd = &cobra.Command{
	Use:   "parse <kind> <signature>",
	Short: "Parse one declaration and print its rendering and ids",
	Long:  "Parses a declaration as the directive .. cpp:<kind>:: <signature> would, without a build. The ids are listed newest first.",
	Example: `  cppdoc parse function "template<typename T> void swap(T &a, T &b) noexcept"
  cppdoc parse class --html "Vector : public Base"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&flagHTML, "html", false, "render the signature as HTML")
}

func runParse(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return outputError("parse", fmt.Errorf("getting cwd: %w", err))
	}
	cfg, err := loadConfig(cmd.Context(), findRepoRoot(cwd))
	if err != nil {
		return outputError("parse", err)
	}
	sig := strings.Join(args[1:], " ")
	d, err := cppdomain.ParseDeclaration(args[0], sig, cfg)
	if err != nil {
		return outputError("parse", fmt.Errorf("parsing %q: %w", sig, err))
	}
	rendered, err := renderDeclaration(nil, d)
	if err != nil {
		return outputError("parse", err)
	}
	return outputResult(CLIResult{Command: "parse", Results: []CLIDeclaration{declarationToCLI(d, rendered)}})
}
