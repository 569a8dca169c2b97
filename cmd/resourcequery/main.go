package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-resource-query/config"
	"github.com/goliatone/go-resource-query/pkg/di"
	"github.com/goliatone/go-resource-query/querycache"
)

// paramFlags collects repeated -p name=value flags.
type paramFlags map[string]string

func (p paramFlags) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p paramFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	p[name] = value
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code, so every
// deferred cleanup runs before the process exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("resourcequery", flag.ContinueOnError)
	fs.SetOutput(stderr)

	params := paramFlags{}
	configPath := fs.String("config", "", "Path to a YAML config file (RESQ_* env vars override it)")
	resource := fs.String("resource", "", "Resource to query")
	refresh := fs.Bool("refresh", false, "Bypass the cache and refresh the entry")
	invalidate := fs.Bool("invalidate", false, "Drop cached entries of the resource instead of querying")
	list := fs.Bool("list", false, "List the known resources")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")
	fs.Var(params, "p", "Query parameter as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "setup: %v\n", err)
		return 1
	}
	defer container.Close()
	logger := container.Logger()

	if *list {
		for _, name := range container.Registry().Names() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	if *resource == "" {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if *invalidate {
		n, err := container.Service().Invalidate(ctx, *resource)
		if err != nil {
			logger.Error("invalidate failed", zap.String("resource", *resource), zap.Error(err))
			return 1
		}
		fmt.Fprintf(stdout, "removed %d entries\n", n)
		return 0
	}

	if *refresh {
		ctx = querycache.WithForceRefresh(ctx)
	}

	resp, err := container.Service().Query(ctx, *resource, params)
	if err != nil {
		writeJSON(stdout, stderr, querycache.AsError(err, ""))
		return 1
	}
	if resp.StoreErr != nil {
		logger.Warn("result not cached", zap.Error(resp.StoreErr))
	}
	writeJSON(stdout, stderr, resp)
	return 0
}

func writeJSON(stdout, stderr io.Writer, v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode: %v\n", err)
	}
}
