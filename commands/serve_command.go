package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	jsonrpc2 "github.com/hashicorp/go-jsonrpc2"
	"github.com/mitchellh/cli"
)

// ServeCommand starts a JSON-RPC 2.0 server listening for HTTP/1.1
// connections on the given port, exposing the demo method set registered by
// registerDemoMethods, with the batch concurrency the -concurrency flag
// selects.
type ServeCommand struct {
	Ui cli.Ui

	port        int
	concurrency int
	logFile     string
}

func (c *ServeCommand) flags() *flag.FlagSet {
	fs := defaultFlagSet("serve")

	fs.IntVar(&c.port, "port", 8080, "port number to listen on")
	fs.IntVar(&c.concurrency, "concurrency", 0, "max concurrent batch members (0 = number of CPUs, at least 2)")
	fs.StringVar(&c.logFile, "log-file", "", "path to file to log into, with support "+
		"for Go template functions (e.g. {{timestamp}}, {{pid}}, {{ppid}})")

	fs.Usage = func() { c.Ui.Error(c.Help()) }

	return fs
}

func (c *ServeCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing command-line flags: %s\n", err.Error()))
		return 1
	}

	var logger *log.Logger
	if c.logFile != "" {
		fl, err := NewFileLogger(c.logFile)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Failed to set up file logging: %s\n", err.Error()))
			return 1
		}
		defer fl.Close()
		logger = fl.Logger()
	} else {
		logger = NewLogger(os.Stderr)
	}

	ctx, cancel := withSignalCancel(context.Background(), logger, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := jsonrpc2.NewRegistry()
	registerDemoMethods(reg)

	srv := jsonrpc2.NewServer(reg, &jsonrpc2.ServerOptions{
		Logger:      logger,
		Concurrency: c.concurrency,
	})

	addr := fmt.Sprintf("localhost:%d", c.port)
	logger.Printf("listening on %s", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			c.Ui.Error(fmt.Sprintf("server exited: %s\n", err.Error()))
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Printf("shutting down")
		if err := srv.Close(); err != nil {
			c.Ui.Error(fmt.Sprintf("error during shutdown: %s\n", err.Error()))
			return 1
		}
		return 0
	}
}

func (c *ServeCommand) Help() string {
	helpText := `
Usage: jsonrpc2 serve [options]

` + c.Synopsis() + "\n\n" + helpForFlags(c.flags())

	return strings.TrimSpace(helpText)
}

func (c *ServeCommand) Synopsis() string {
	return "Starts a JSON-RPC 2.0 server over HTTP/1.1"
}
