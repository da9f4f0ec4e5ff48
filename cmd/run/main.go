package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/runner"
	"github.com/wippyai/wasm-embed/session"
	"github.com/wippyai/wasm-embed/wasm"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to wasm module file")
		name        = flag.String("name", "", "Module name reported as argv[0]")
		cliArgs     = flag.String("argv", "", "Guest arguments (comma-separated)")
		envVars     = flag.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2; default inherits host)")
		stdinFile   = flag.String("stdin-file", "", "File to bind as guest stdin (default: the host's stdin)")
		list        = flag.Bool("list", false, "List exported functions and exit")
		verbose     = flag.Bool("v", false, "Log runtime events to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-argv a,b] [-env K=V,...]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		runner.SetLogger(runner.NewStderrLogger())
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *list {
		if err := listExports(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(int(run(*wasmFile, *name, *cliArgs, *envVars, *stdinFile)))
}

func run(wasmFile, name, argvStr, envStr, stdinFile string) int32 {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read file: %v\n", err)
		return runner.ExitSentinel
	}

	stdinFD := int(os.Stdin.Fd())
	if stdinFile != "" {
		f, err := os.Open(stdinFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open stdin file: %v\n", err)
			return runner.ExitSentinel
		}
		defer f.Close()
		stdinFD = int(f.Fd())
	}

	opts := runner.Options{
		Binary:   data,
		Name:     name,
		StdinFD:  stdinFD,
		StdoutFD: int(os.Stdout.Fd()),
		StderrFD: int(os.Stderr.Fd()),
	}
	if argvStr != "" {
		opts.Args = strings.Split(argvStr, ",")
	}
	if envStr != "" {
		opts.Env = parseEnv(envStr)
	}

	return runner.Execute(context.Background(), opts)
}

func parseEnv(envStr string) []session.EnvVar {
	var env []session.EnvVar
	for _, kv := range strings.Split(envStr, ",") {
		name, value, ok := strings.Cut(kv, "=")
		if ok {
			env = append(env, session.EnvVar{Name: name, Value: value})
		}
	}
	return env
}

func listExports(wasmFile string) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := wasm.ValidateHeader(data); err != nil {
		return err
	}

	eng, err := engine.New(ctx)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	compiled, err := eng.Compile(ctx, data)
	if err != nil {
		return err
	}
	defer compiled.Close(ctx)

	fmt.Printf("Module: %s\n\nExports:\n", wasmFile)
	for _, name := range engine.ExportNames(compiled) {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
