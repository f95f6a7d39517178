// Command httpcall executes one HTTP request through the pipehttp client
// and prints the response.
//
//	httpcall -u https://api.example.com -H "Accept: application/json" /users/1
//	httpcall -c config.yml -F name=ada -F avatar=@me.png /users
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kbukum/pipehttp/component"
	"github.com/kbukum/pipehttp/httpclient"
	"github.com/kbukum/pipehttp/logger"
	"github.com/kbukum/pipehttp/observability"
	"github.com/kbukum/pipehttp/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 2
	}
	if f.version {
		fmt.Fprintln(stdout, "httpcall "+version.Short())
		return 0
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 2
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)

	shutdown, err := observability.Setup(ctx, cfg.Observability, log)
	if err != nil {
		log.Error("observability setup failed", logger.ErrorFields(nil, err))
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("observability shutdown failed", logger.ErrorFields(nil, err))
		}
	}()

	req, err := f.request()
	if err != nil {
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 2
	}

	client := httpclient.NewComponent(cfg.Client,
		httpclient.WithLogger(log),
		httpclient.WithInjector(f.injectors()...))
	registry := component.NewRegistry(log)
	if err := registry.Register(client); err != nil {
		log.Error("register client", logger.ErrorFields(nil, err))
		return 1
	}
	if err := registry.StartAll(ctx); err != nil {
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 2
	}
	defer func() {
		if err := registry.StopAll(context.Background()); err != nil {
			log.Warn("stop components", logger.ErrorFields(nil, err))
		}
	}()

	resp, err := client.Client().Execute(ctx, req)
	if err != nil {
		return printError(stdout, stderr, f.include, err)
	}
	if f.include {
		printHeaders(stdout, resp.StatusCode, resp.Headers)
	}
	if err := printResult(stdout, resp.Result); err != nil {
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 1
	}
	return 0
}

// printError reports err and returns the exit code. Protocol errors print
// the server's body to stdout.
func printError(stdout, stderr io.Writer, include bool, err error) int {
	e, ok := httpclient.AsError(err)
	if !ok {
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 1
	}
	switch e.Kind {
	case httpclient.KindProtocol:
		if include {
			printHeaders(stdout, e.StatusCode, e.Headers)
		}
		if len(e.Body) > 0 {
			fmt.Fprintln(stdout, string(e.Body))
		}
		fmt.Fprintf(stderr, "httpcall: server returned HTTP %d\n", e.StatusCode)
		return 22
	case httpclient.KindTransport:
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		if e.Code > 0 && e.Code < 256 {
			return e.Code
		}
		return 1
	default:
		fmt.Fprintf(stderr, "httpcall: %v\n", err)
		return 1
	}
}

func printHeaders(w io.Writer, status int, headers httpclient.Headers) {
	fmt.Fprintf(w, "HTTP %d\n", status)
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, headers[k])
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, result any) error {
	switch v := result.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("format result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
}
