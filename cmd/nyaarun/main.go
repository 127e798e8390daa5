package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/nyaavm/nyaavm/internal/asm"
	"github.com/nyaavm/nyaavm/vm"
)

func main() {
	var (
		src         = flag.String("src", "", "Path to a .nyasm bytecode assembly file")
		entry       = flag.String("entry", "", "Bootstrap function to run (default: assembly's own entry)")
		list        = flag.Bool("list", false, "List assembled functions and exit")
		disasm      = flag.Bool("disasm", false, "Print a disassembly of every loaded function and exit")
		maxDepth    = flag.Int("maxdepth", 0, "Override the call-stack depth limit (0: runtime default)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *src == "" {
		fmt.Fprintln(os.Stderr, "Usage: nyaarun -src <file.nyasm> [-entry name]")
		fmt.Fprintln(os.Stderr, "       nyaarun -src <file.nyasm> -list")
		fmt.Fprintln(os.Stderr, "       nyaarun -src <file.nyasm> -disasm")
		fmt.Fprintln(os.Stderr, "       nyaarun -src <file.nyasm> -i  (interactive mode)")
		os.Exit(1)
	}

	mod, err := assembleFile(*src, *entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires an interactive terminal on stdin and stdout")
			os.Exit(1)
		}
		if err := runInteractive(*src, mod, *maxDepth); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(mod, *list, *disasm, *maxDepth); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func assembleFile(path, entry string) (*asm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	mod, err := asm.Assemble(string(data), asm.Options{Entry: entry})
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return mod, nil
}

func buildVM(mod *asm.Module, maxDepth int, out *bytes.Buffer) (*vm.VM, error) {
	v, err := vm.New(vm.Options{MaxCallDepth: maxDepth})
	if err != nil {
		return nil, fmt.Errorf("create vm: %w", err)
	}
	if err := v.RegisterBuiltins(out); err != nil {
		return nil, fmt.Errorf("register builtins: %w", err)
	}
	if err := v.LoadModule(mod.Blob); err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	return v, nil
}

func run(mod *asm.Module, listOnly, disasmOnly bool, maxDepth int) error {
	fmt.Printf("Functions: %d\n", len(mod.Blob.Functions))
	fmt.Printf("Externs: %d\n", len(mod.Externs))
	for _, fn := range mod.Blob.Functions {
		fmt.Printf("  %s (id=%d, %d instructions)\n", fn.Name, fn.ID, len(fn.Code))
	}
	if listOnly {
		return nil
	}

	var out bytes.Buffer
	v, err := buildVM(mod, maxDepth, &out)
	if err != nil {
		return err
	}

	if disasmOnly {
		fmt.Print(v.DisassembleAll())
		return nil
	}

	fmt.Printf("\nRunning %s...\n", mod.Blob.Entry)
	kind, runErr := v.Run(context.Background())
	if out.Len() > 0 {
		fmt.Printf("\n--- output ---\n%s", out.String())
	}
	fmt.Printf("\nExit: %s\n", kind)
	if runErr != nil {
		if frames := v.Backtrace(); len(frames) > 0 {
			fmt.Println("\nBacktrace:")
			for _, f := range frames {
				fmt.Printf("  %s (%s)\n", f.Name, f.Kind)
			}
		}
		return runErr
	}
	return nil
}
