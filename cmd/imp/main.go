// Imp CLI - compiles and runs imp programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/imp/compiler"
	"github.com/chazu/imp/manifest"
	"github.com/chazu/imp/store"
	"github.com/chazu/imp/vm"
)

var log = commonlog.GetLogger("imp")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	trace := flag.Bool("trace", false, "Log every executed instruction")
	disasm := flag.Bool("disasm", false, "Print the compiled bytecode and exit")
	emit := flag.String("emit", "", "Write the compiled program image to this path instead of running")
	cachePath := flag.String("cache", "", "Cache compiled programs in this database")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: imp [options] [file.imp|file.impc]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles the given imp source to bytecode and runs it. With no file,\n")
		fmt.Fprintf(os.Stderr, "looks for an imp.toml manifest and runs its entry point.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  imp program.imp              # Compile and run\n")
		fmt.Fprintf(os.Stderr, "  imp -disasm program.imp      # Show the bytecode\n")
		fmt.Fprintf(os.Stderr, "  imp -emit program.impc program.imp\n")
		fmt.Fprintf(os.Stderr, "  imp program.impc             # Run a compiled image\n")
	}
	flag.Parse()

	path := flag.Arg(0)
	var proj *manifest.Manifest
	if path == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		proj = m
		path = m.EntryPath()
		if m.Run.Trace {
			*trace = true
		}
		if *cachePath == "" {
			*cachePath = m.CachePath()
		}
	}

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	if *trace {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	if proj != nil {
		log.Infof("running project %s (entry %s)", proj.Project.Name, proj.Source.Entry)
	}

	registry := vm.NewRegistry(os.Stdin, os.Stdout)

	prog, err := loadProgram(path, registry, *cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(prog.Disassemble())
		return
	}

	if *emit != "" {
		if err := vm.WriteImageFile(*emit, prog); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("wrote image %s (%d bytes of code)", *emit, prog.Len())
		return
	}

	interp := vm.NewInterp(prog)
	interp.SetTrace(*trace)
	if err := interp.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadProgram produces a runnable program from a source file or a compiled
// image, consulting the cache database when one is configured.
func loadProgram(path string, registry *vm.Registry, cachePath string) (*vm.Program, error) {
	if strings.HasSuffix(path, ".impc") {
		return vm.ReadImageFile(path, registry)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := string(data)

	var cache *store.Store
	if cachePath != "" {
		cache, err = store.Open(cachePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()

		prog, err := cache.Get(source, registry)
		if err == nil {
			log.Debugf("cache hit for %s", path)
			return prog, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	prog, err := compiler.Compile(source, registry)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Put(source, prog); err != nil {
			log.Warningf("cache write failed: %v", err)
		}
	}
	return prog, nil
}
