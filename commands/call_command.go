package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"time"

	jsonrpc2 "github.com/hashicorp/go-jsonrpc2"
	"github.com/mitchellh/cli"
)

// CallCommand issues a single JSON-RPC 2.0 call (or notification) against a
// running server and prints the result.
type CallCommand struct {
	Ui cli.Ui

	addr    string
	method  string
	params  string
	notify  bool
	timeout time.Duration
}

func (c *CallCommand) flags() *flag.FlagSet {
	fs := defaultFlagSet("call")

	fs.StringVar(&c.addr, "addr", "localhost:8080", "address of the server to call")
	fs.StringVar(&c.method, "method", "", "method name to invoke")
	fs.StringVar(&c.params, "params", "", "JSON-encoded params, e.g. '[1,2]' or '{\"a\":1}'")
	fs.BoolVar(&c.notify, "notify", false, "send as a notification instead of a call")
	fs.DurationVar(&c.timeout, "timeout", 10*time.Second, "overall request timeout")

	fs.Usage = func() { c.Ui.Error(c.Help()) }

	return fs
}

func (c *CallCommand) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		c.Ui.Error(fmt.Sprintf("Error parsing command-line flags: %s\n", err.Error()))
		return 1
	}

	if c.method == "" {
		c.Ui.Error("-method is required\n")
		return 1
	}

	var params interface{}
	if c.params != "" {
		if err := json.Unmarshal([]byte(c.params), &params); err != nil {
			c.Ui.Error(fmt.Sprintf("Invalid -params JSON: %s\n", err.Error()))
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	client := jsonrpc2.NewClient(c.addr, nil)

	if c.notify {
		client.Notify(ctx, c.method, params)
		return 0
	}

	rsp, err := client.Call(ctx, c.method, params)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("call failed: %s\n", err.Error()))
		return 1
	}

	if rsp.IsError() {
		rpcErr := rsp.Err()
		c.Ui.Error(fmt.Sprintf("server returned error %d: %s\n", rpcErr.Code(), rpcErr.Message()))
		return 1
	}

	var result interface{}
	if err := rsp.UnmarshalResult(&result); err != nil {
		c.Ui.Error(fmt.Sprintf("failed to decode result: %s\n", err.Error()))
		return 1
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		c.Ui.Error(fmt.Sprintf("failed to format result: %s\n", err.Error()))
		return 1
	}

	c.Ui.Output(string(out))
	return 0
}

func (c *CallCommand) Help() string {
	helpText := `
Usage: jsonrpc2 call -method <name> [-params <json>] [options]

` + c.Synopsis() + "\n\n" + helpForFlags(c.flags())

	return strings.TrimSpace(helpText)
}

func (c *CallCommand) Synopsis() string {
	return "Calls a method on a running JSON-RPC 2.0 server"
}
