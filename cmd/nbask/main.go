package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: nbask <command> [flags]

Commands:
  ask      Answer a question about a notebook cell
  kernel   Serve magic cells over JSON lines on stdin/stdout
  context  Print the history replayed for a notebook cell
  init     Initialize a .nbask directory with default config

Run 'nbask <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "ask":
		err = runAsk(ctx, os.Args[2:])
	case "kernel":
		err = runKernel(ctx, os.Args[2:])
	case "context":
		err = runContext(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by every command that builds an engine.
type commonFlags struct {
	configPath string
	askDir     string
	envFile    string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to configuration file (default: .nbask/config.yaml)")
	fs.StringVar(&c.askDir, "dir", ".nbask", "path to .nbask directory")
	fs.StringVar(&c.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&c.verbose, "verbose", false, "log at debug level")
}
