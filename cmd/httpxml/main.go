// Package main is a command line client that sends a request through the
// XML pipeline and prints the decoded response.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/internal/observability"
	"github.com/vyrodovalexey/httpxml/middleware"
	"github.com/vyrodovalexey/httpxml/pipeline"
	"github.com/vyrodovalexey/httpxml/xmlcodec"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	method      string
	url         string
	bodyPath    string
	rawBody     bool
	headers     headerFlags
	timeout     time.Duration
	metrics     bool
	showVersion bool
}

// headerFlags collects repeated -H "Name: value" flags.
type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }

func (h *headerFlags) Set(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("header %q must look like Name: value", value)
	}
	*h = append(*h, value)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.SetupPropagation()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "httpxml: %v\n", err)
		}
		os.Exit(1)
	}
}

// run executes one request. It is main without the process exit.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if flags.showVersion {
		printVersion(stdout)
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging.LogConfig()
	logger, err := observability.NewLoggerTo(logCfg, zapSink(stderr))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if flags.url == "" {
		return fmt.Errorf("-url is required")
	}

	body, err := readBody(flags, stdin)
	if err != nil {
		return err
	}

	reg := pipeline.NewRegistry()
	middleware.Register(reg)

	connOpts := []pipeline.ConnectionOption{
		pipeline.WithHTTPClient(&http.Client{Timeout: flags.timeout}),
	}
	if flags.metrics {
		metrics := newMetrics()
		connOpts = append(connOpts, pipeline.WithConnectionMetrics(metrics))
		defer func() {
			if err := metrics.WriteText(stderr); err != nil {
				logger.Error("failed to write metrics", observability.Error(err))
			}
		}()
	}

	conn, err := reg.Connection(cfg, logger, connOpts...)
	if err != nil {
		return err
	}

	logger.Info("sending request",
		observability.String("method", flags.method),
		observability.String("url", flags.url),
	)

	resp, err := conn.Do(ctx, flags.method, flags.url, body, requestHeader(flags.headers))
	if err != nil {
		var parseErr *middleware.ParsingError
		if errors.As(err, &parseErr) && parseErr.Response != nil {
			logger.Warn("response body is not valid xml",
				observability.Int("status", parseErr.Response.Status()),
			)
		}
		return err
	}

	logger.Info("response received", observability.Int("status", resp.Status()))
	return printBody(stdout, resp.Body())
}

// newMetrics builds a registry holding the request, codec and middleware
// collectors.
func newMetrics() *observability.Metrics {
	metrics := observability.NewMetrics("httpxml")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	xmlcodec.GetCodecMetrics().MustRegister(metrics.Registry())
	mw := middleware.GetMetrics()
	mw.Init()
	mw.MustRegister(metrics.Registry())
	return metrics
}

// parseFlags parses command line flags, falling back to the environment
// for the flags listed in envFlags.
func parseFlags(args []string, output io.Writer) (cliFlags, error) {
	var flags cliFlags

	fs := flag.NewFlagSet("httpxml", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.configPath, "config", "",
		"Path to configuration file")
	fs.StringVar(&flags.logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	fs.StringVar(&flags.logFormat, "log-format", "",
		"Log format (json, console)")
	fs.StringVar(&flags.method, "method", http.MethodGet, "HTTP method")
	fs.StringVar(&flags.url, "url", "", "Request URL")
	fs.StringVar(&flags.bodyPath, "body", "",
		"YAML or JSON file encoded as the XML request body, - for stdin")
	fs.BoolVar(&flags.rawBody, "raw", false,
		"Send the body file as it is instead of encoding it")
	fs.Var(&flags.headers, "H", "Request header, may be repeated")
	fs.DurationVar(&flags.timeout, "timeout", 30*time.Second, "Request timeout")
	fs.BoolVar(&flags.metrics, "metrics", false,
		"Write Prometheus metrics to stderr after the request")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if err := applyEnv(fs, nil); err != nil {
		return cliFlags{}, fmt.Errorf("invalid environment: %w", err)
	}
	flags.method = strings.ToUpper(flags.method)
	return flags, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "httpxml version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// loadConfig loads the configuration file, if any, and applies the
// logging flags on top.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadYAMLConfig(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readBody loads the request body. Structured files are decoded so the
// request stage can encode them.
func readBody(flags cliFlags, stdin io.Reader) (any, error) {
	if flags.bodyPath == "" {
		return nil, nil
	}

	var (
		data []byte
		err  error
	)
	if flags.bodyPath == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(flags.bodyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if flags.rawBody {
		return string(data), nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}
	return doc, nil
}

func requestHeader(values headerFlags) http.Header {
	header := make(http.Header, len(values))
	for _, v := range values {
		name, value, _ := strings.Cut(v, ":")
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header
}

// printBody writes a decoded body as YAML and anything else as text.
func printBody(w io.Writer, body any) error {
	switch b := body.(type) {
	case nil:
		return nil
	case xmlcodec.Value:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(b)); err != nil {
			return fmt.Errorf("failed to print body: %w", err)
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, b)
		return err
	}
}
