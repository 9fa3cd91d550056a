// Command gmlc-tools bundles secondary GML development tools behind
// cobra subcommands, grounded on ajroetker-goat's cobra wiring: a root
// command plus subcommands and their flags registered from init().
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gm-archive/dejavu/gml"
	"github.com/gm-archive/dejavu/gml/back"
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/symbol"
)

var rootCmd = &cobra.Command{
	Use:   "gmlc-tools",
	Short: "inspection tools for compiled GML scripts",
}

var dumpCmd = &cobra.Command{
	Use:   "dump <script.gml>",
	Short: "compile a script and print its bytecode listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		src, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		syms := symbol.NewTable()
		name := syms.Intern(baseName(path))
		res := gml.Build(syms, map[symbol.Symbol]gml.Item{name: gml.ScriptItem{Source: string(src)}}, nil)
		if n := res.Debug[name].Len(); n > 0 {
			for _, d := range res.Debug[name].Items() {
				fmt.Fprintf(os.Stderr, "%s:%d: %s\n", path, d.Span.Low, d.Message)
			}
			return errors.Errorf("%s: %d diagnostic(s)", path, n)
		}

		back.Disassemble(os.Stdout, res.Scripts[name], syms)
		return nil
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <script-dir>",
	Short: "compile every .gml file in a directory and report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		dir := args[0]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, "reading %s", dir)
		}

		gmlFiles := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
			return !e.IsDir() && filepath.Ext(e.Name()) == ".gml"
		})
		if len(gmlFiles) == 0 {
			return errors.Errorf("%s: no .gml files found", dir)
		}
		names := lo.Map(gmlFiles, func(e os.DirEntry, _ int) string { return baseName(e.Name()) })

		syms := symbol.NewTable()
		items := make(map[symbol.Symbol]gml.Item, len(gmlFiles))
		for i, e := range gmlFiles {
			src, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return errors.Wrapf(err, "reading %s", e.Name())
			}
			items[syms.Intern(names[i])] = gml.ScriptItem{Source: string(src)}
		}

		var failed int
		res := gml.Build(syms, items, func(name symbol.Symbol, source string) diag.Handler {
			return func(span diag.Span, message string) {
				failed++
				fmt.Fprintf(os.Stderr, "%s.gml:%d: %s\n", syms.Name(name), span.Low, message)
			}
		})

		if !quiet {
			for _, n := range names {
				sym, _ := syms.Lookup(n)
				fmt.Fprintf(os.Stdout, "%s: %d instruction(s)\n", n, len(res.Scripts[sym].Instrs))
			}
		}
		if failed > 0 {
			return errors.Errorf("%d diagnostic(s) across %d script(s)", failed, len(items))
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().Bool("quiet", false, "suppress the per-script instruction-count summary")
	rootCmd.AddCommand(dumpCmd, buildCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gmlc-tools: %+v\n", err)
		os.Exit(1)
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
