package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"flag"

	"rv32emu/api"
	"rv32emu/config"
	"rv32emu/debugger"
	"rv32emu/loader"
)

// Version information, overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in debugger mode (CLI)")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		guiMode     = flag.Bool("gui", false, "Use desktop GUI debugger")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiAddr     = flag.String("addr", "", "API server listen address (overrides config)")
		maxSteps    = flag.Uint64("max-steps", 1_000_000, "Maximum steps to execute before stopping")
		origin      = flag.Uint("origin", 0, "Load address for the assembled image")
		memorySize  = flag.Uint("memory-size", 0, "Guest memory size in bytes (default: from config)")
		stackTop    = flag.Uint("stack-top", 0, "Initial stack pointer value (default: memory size)")
		stopOnTrap  = flag.Bool("stop-on-trap", false, "Stop execution on the first trap")
		traceOut    = flag.Bool("trace", false, "Print a step-by-step trace to stderr")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("rv32emu %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if *apiServer {
		addr := cfg.Server.ListenAddr
		if *apiAddr != "" {
			addr = *apiAddr
		}
		runAPIServer(addr)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	asmFile := flag.Arg(0)
	srcBytes, err := os.ReadFile(asmFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", asmFile, err)
		os.Exit(1)
	}
	source := string(srcBytes)

	memSize := uint32(*memorySize)
	if memSize == 0 {
		memSize = cfg.Execution.MemorySize
	}
	entry := uint32(*origin)
	if entry == 0 {
		entry = cfg.Execution.Origin
	}
	top := uint32(*stackTop)
	if top == 0 {
		top = cfg.Execution.StackTop
		if top == 0 || top > memSize {
			top = memSize
		}
	}

	prog, errs := loader.Load(source, entry, memSize, top)
	if errs.HasErrors() {
		fmt.Fprintf(os.Stderr, "assembly failed:\n%s", errs.Error())
		os.Exit(1)
	}

	if *debugMode || *tuiMode || *guiMode {
		dbg := debugger.New(prog, source, entry, memSize, top)
		runDebugger(dbg, *tuiMode, *guiMode, filepath.Base(asmFile))
		return
	}

	runHeadless(prog, *maxSteps, *stopOnTrap, *traceOut)
}

func runDebugger(dbg *debugger.Debugger, tui, gui bool, name string) {
	switch {
	case tui:
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
			os.Exit(1)
		}
	case gui:
		if err := debugger.RunGUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "gui error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("rv32emu debugger - program %s loaded\n", name)
		runCLI(dbg)
	}
}

// runCLI is a minimal line-oriented debugger for terminals without a
// curses-capable tty, mirroring the TUI's command vocabulary.
func runCLI(dbg *debugger.Debugger) {
	fmt.Println("type 'step', 'continue', 'regs', 'reset', or 'quit'")
	var cmd string
	for {
		fmt.Print("(rv32) ")
		if _, err := fmt.Scanln(&cmd); err != nil {
			return
		}
		switch cmd {
		case "step", "s":
			r := dbg.Step()
			fmt.Printf("%v pc=0x%08x\n", r.Kind, dbg.Machine().PC)
		case "continue", "c":
			results := dbg.Continue(0)
			if len(results) > 0 {
				fmt.Printf("stopped: %v\n", results[len(results)-1].Kind)
			}
		case "regs":
			for i := uint32(0); i < 32; i++ {
				fmt.Println(debugger.RegisterLine(dbg.Machine(), i))
			}
		case "reset":
			if err := dbg.Reset(); err != nil {
				fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
			}
		case "quit", "q":
			return
		default:
			fmt.Println("unrecognized command")
		}
	}
}

func runHeadless(prog *loader.Program, maxSteps uint64, stopOnTrap, trace bool) {
	for i := uint64(0); maxSteps == 0 || i < maxSteps; i++ {
		r := prog.Machine.Step()
		if trace {
			fmt.Fprintf(os.Stderr, "pc=0x%08x cycle=%d instret=%d %v\n",
				prog.Machine.PC, prog.Machine.Cycle, prog.Machine.Instret, r.Kind)
		}
		if r.Kind.String() == "halted" {
			os.Exit(0)
		}
		if r.Kind.String() == "trapped" && stopOnTrap {
			fmt.Fprintf(os.Stderr, "trap: cause=%s epc=0x%08x\n", r.Cause, r.EPC)
			os.Exit(1)
		}
	}
}

func runAPIServer(addr string) {
	server := api.NewServer(addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nshutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		fmt.Printf("API server listening on %s\n", addr)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`rv32emu %s

Usage: rv32emu [options] <assembly-file>
       rv32emu -api-server [-addr host:port]

Options:
  -help             Show this help message
  -version          Show version information
  -api-server       Start HTTP API server mode (no assembly file required)
  -addr ADDR        API server listen address (default: from config)
  -debug            Start in debugger mode (line-oriented CLI)
  -tui              Start in TUI debugger mode
  -gui              Start in desktop GUI debugger mode
  -max-steps N      Maximum steps to execute before stopping (default 1000000)
  -origin ADDR      Load address for the assembled image
  -memory-size N    Guest memory size in bytes
  -stack-top ADDR   Initial stack pointer value
  -stop-on-trap     Stop execution on the first trap
  -trace            Print a step-by-step trace to stderr
`, Version)
}
