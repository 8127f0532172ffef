package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	uploadclient "github.com/hyperse-io/apollo-upload-client"
	"github.com/hyperse-io/apollo-upload-client/internal/eventbus"
	"github.com/hyperse-io/apollo-upload-client/internal/otel"
)

const rootUsage = `gqlupload — send GraphQL operations with file uploads

USAGE:
  gqlupload <command> [flags]

COMMANDS:
  send             Send one GraphQL operation, uploading files as multipart parts
  help             Show help for any command
`

const sendUsage = `send FLAGS:
  -endpoint <url>            GraphQL endpoint URL (required)
  -query <string>            Operation source text
  -query-file <file>         Read operation source from file (alternative to -query)
  -operation <name>          Operation name, required for multi-operation documents
  -var <name=json>           Set a variable from a JSON value. Repeatable
  -upload <name=path>        Set a variable to a file from disk. Repeatable
  -header <name:value>       Add an HTTP header. Repeatable
  -timeout <duration>        Request timeout, e.g. 30s (default: 30s)
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: gqlupload)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "send":
		return cmdSend(args[1:])
	case "help":
		return cmdHelp(args[1:])
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "send":
		fmt.Print(sendUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type pairFlag struct {
	sep   string
	pairs [][2]string
}

func (p *pairFlag) String() string { return "" }

func (p *pairFlag) Set(v string) error {
	parts := strings.SplitN(v, p.sep, 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return fmt.Errorf("invalid value %q, want name%svalue", v, p.sep)
	}
	p.pairs = append(p.pairs, [2]string{strings.TrimSpace(parts[0]), parts[1]})
	return nil
}

func cmdSend(args []string) error {
	endpoint := ""
	query := ""
	queryFile := ""
	operation := ""
	timeout := 30 * time.Second
	otelEndpoint := ""
	otelService := "gqlupload"
	vars := pairFlag{sep: "="}
	uploads := pairFlag{sep: "="}
	headers := pairFlag{sep: ":"}

	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&endpoint, "endpoint", endpoint, "GraphQL endpoint URL")
	fs.StringVar(&query, "query", query, "Operation source text")
	fs.StringVar(&queryFile, "query-file", queryFile, "Read operation source from file")
	fs.StringVar(&operation, "operation", operation, "Operation name")
	fs.Var(&vars, "var", "Set a variable from a JSON value")
	fs.Var(&uploads, "upload", "Set a variable to a file from disk")
	fs.Var(&headers, "header", "Add an HTTP header")
	fs.DurationVar(&timeout, "timeout", timeout, "Request timeout")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, sendUsage)
		return err
	}
	if endpoint == "" {
		fmt.Fprint(os.Stderr, sendUsage)
		return fmt.Errorf("-endpoint is required")
	}
	if queryFile != "" {
		if query != "" {
			return fmt.Errorf("-query and -query-file are mutually exclusive")
		}
		src, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("reading query file: %w", err)
		}
		query = string(src)
	}
	if query == "" {
		fmt.Fprint(os.Stderr, sendUsage)
		return fmt.Errorf("one of -query or -query-file is required")
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var opts []uploadclient.Option
	if timeout > 0 {
		opts = append(opts, uploadclient.WithTimeout(timeout))
	}
	for _, h := range headers.pairs {
		opts = append(opts, uploadclient.WithHeader(h[0], strings.TrimSpace(h[1])))
	}
	client := uploadclient.New(endpoint, opts...)

	req := uploadclient.NewRequest(query)
	req.OperationName = operation
	for _, kv := range vars.pairs {
		var value any
		if err := json.Unmarshal([]byte(kv[1]), &value); err != nil {
			return fmt.Errorf("variable %s: invalid JSON: %w", kv[0], err)
		}
		req.Var(kv[0], value)
	}
	var open []*os.File
	defer func() {
		for _, f := range open {
			_ = f.Close()
		}
	}()
	for _, kv := range uploads.pairs {
		f, err := os.Open(kv[1])
		if err != nil {
			return fmt.Errorf("upload %s: %w", kv[0], err)
		}
		open = append(open, f)
		req.Upload(kv[0], filepath.Base(kv[1]), f)
	}

	res, err := client.Do(context.Background(), req)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if len(res.Errors) > 0 {
		return fmt.Errorf("operation returned %d error(s)", len(res.Errors))
	}
	return nil
}
