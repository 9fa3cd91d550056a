// Command gmlc compiles one or more .gml scripts and runs one of them to
// completion, grounded on db47h/ngaro's cmd/retro driver: a flat flag.Var
// file list, github.com/pkg/errors wrapping, and stderr error reporting.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/gm-archive/dejavu/gml"
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }
func (f *fileList) Set(s string) error {
	*f = append(*f, s)
	return nil
}

func main() {
	var scripts fileList
	flag.Var(&scripts, "script", "path to a .gml script, registered under its base name (repeatable)")
	entry := flag.String("entry", "", "name of the script to run (defaults to the first -script)")
	dump := flag.Bool("dump", false, "print the diagnostic count for every script after compiling, even on success")
	flag.Parse()

	if err := run(scripts, *entry, *dump); err != nil {
		fmt.Fprintf(os.Stderr, "gmlc: %+v\n", err)
		os.Exit(1)
	}
}

func run(scripts fileList, entry string, dump bool) error {
	if len(scripts) == 0 {
		return errors.New("no -script given")
	}

	syms := symbol.NewTable()
	items := make(map[symbol.Symbol]gml.Item, len(scripts))
	names := make([]symbol.Symbol, 0, len(scripts))
	for _, path := range scripts {
		src, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		name := syms.Intern(baseName(path))
		items[name] = gml.ScriptItem{Source: string(src)}
		names = append(names, name)
	}

	var failed bool
	res := gml.Build(syms, items, func(name symbol.Symbol, source string) diag.Handler {
		return func(span diag.Span, message string) {
			failed = true
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", syms.Name(name), span.Low, message)
		}
	})
	if dump {
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "-- %s: %d diagnostic(s)\n", syms.Name(name), res.Debug[name].Len())
		}
	}
	if failed {
		return errors.New("compilation failed")
	}

	entrySym := names[0]
	if entry != "" {
		entrySym = syms.Intern(entry)
	}

	world := gml.NewMemWorld(res)
	th := vm.NewThread(world, syms, res.Scripts)
	result, err := th.Call(entrySym, nil)
	if err != nil {
		return errors.Wrapf(err, "running %s", syms.Name(entrySym))
	}
	fmt.Println(display(result, syms))
	return nil
}

func display(v vm.Value, syms *symbol.Table) string {
	if f, ok := v.Real(); ok {
		return fmt.Sprintf("%g", f)
	}
	if s, ok := v.Symbol(); ok {
		return syms.Name(s)
	}
	return v.Type().String()
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
