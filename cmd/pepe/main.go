package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/studiowebux/pepe/internal/cli"
	"github.com/studiowebux/pepe/internal/config"
	"github.com/studiowebux/pepe/internal/converter"
	"github.com/studiowebux/pepe/internal/engine"
	"github.com/studiowebux/pepe/internal/request"
	"github.com/studiowebux/pepe/internal/tui"
	"github.com/studiowebux/pepe/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pepe [url]",
	Short: "pepe - HTTP load generator with a live dashboard",
	Long: `pepe replays one HTTP request under load and streams the statistics to a
live terminal dashboard: latency percentiles, timing breakdown, status
codes, cache verdicts.

When stdout is not a terminal (or --plain is set) the dashboard is replaced
by a progress line on stderr and the final report on stdout, so runs can be
piped and scripted. Cancelling a run (Ctrl-C, or 'i' in the dashboard)
still produces a report covering everything that completed.

Examples:
  pepe https://api.example.com/health
  pepe -n 1000 -c 50 https://api.example.com/users
  pepe -m POST -d '{"name":"bob"}' -T application/json https://api.example.com/users
  pepe --curl -- curl -X POST https://api.example.com/login -d '{"user":"a"}'
  pepe -n 500 -o report.json https://api.example.com/health`,
	Version: version.Version,
	Args:    cobra.ArbitraryArgs, // --curl takes a whole command after --
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return run(cmd, args)
	},
}

var (
	flagNumber      int
	flagConcurrency int
	flagTimeout     int
	flagMethod      string
	flagHeaders     []string
	flagBody        string
	flagBodyFile    string
	flagUserAgent   string
	flagBasicAuth   string
	flagProxy       string
	flagAccept      string
	flagContentType string
	flagOutput      string
	flagCurl        bool
	flagPlain       bool

	flagDisableCompression bool
	flagDisableKeepalive   bool
	flagDisableRedirects   bool
)

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&flagNumber, "number", "n", 100, "Total number of requests")
	f.IntVarP(&flagConcurrency, "concurrency", "c", runtime.NumCPU(), "Concurrent requests (default: CPU count)")
	f.IntVarP(&flagTimeout, "timeout", "t", 30, "Per-request timeout in seconds (1-120)")
	f.StringVarP(&flagMethod, "method", "m", "GET", "HTTP method")
	f.StringArrayVarP(&flagHeaders, "header", "H", nil, "Request header 'Name: value', can be repeated")
	f.StringVarP(&flagBody, "body", "d", "", "Request body")
	f.StringVarP(&flagBodyFile, "body-file", "D", "", "Read request body from file")
	f.StringVarP(&flagUserAgent, "user-agent", "u", version.UserAgent(), "User-Agent header")
	f.StringVarP(&flagBasicAuth, "basic-auth", "b", "", "Basic auth credentials 'user:password'")
	f.StringVarP(&flagProxy, "proxy", "p", "", "Proxy URL (http, https or socks5)")
	f.StringVarP(&flagAccept, "accept", "A", "", "Accept header shorthand")
	f.StringVarP(&flagContentType, "content-type", "T", "", "Content-Type header shorthand")
	f.StringVarP(&flagOutput, "output", "o", "", "Export the final report (.json, .yaml or text)")
	f.BoolVar(&flagCurl, "curl", false, "Parse the request from a curl command given after --")
	f.BoolVar(&flagPlain, "plain", false, "Disable the dashboard even on a terminal")
	f.BoolVar(&flagDisableCompression, "disable-compression", false, "Disable response compression")
	f.BoolVar(&flagDisableKeepalive, "disable-keepalive", false, "Disable connection reuse")
	f.BoolVar(&flagDisableRedirects, "disable-redirects", false, "Do not follow redirects")
}

// validMethods is the accepted -m set.
var validMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true,
	"PATCH": true, "DELETE": true, "OPTIONS": true, "TRACE": true,
}

func run(cmd *cobra.Command, args []string) error {
	applyConfigDefaults(cmd)

	tpl, err := buildTemplate(cmd, args)
	if err != nil {
		return err
	}

	opts := engine.Options{
		Total:       flagNumber,
		Concurrency: flagConcurrency,
		Timeout:     time.Duration(flagTimeout) * time.Second,
	}
	if err := validate(tpl, opts); err != nil {
		return err
	}

	// Dashboard only on a real terminal; pipes get the plain runner.
	if flagPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
		_, err := cli.Run(context.Background(), cli.RunOptions{
			Template: tpl,
			Engine:   opts,
			Out:      os.Stdout,
			Progress: os.Stderr,
			SavePath: flagOutput,
		})
		return err
	}

	report, err := tui.Start(tpl, opts)
	if err != nil {
		return err
	}

	// The alt screen is gone at this point; leave the report behind it.
	if err := report.Write(os.Stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if flagOutput != "" {
		if err := report.Export(flagOutput); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "report saved to %s\n", flagOutput)
	}
	return nil
}

// applyConfigDefaults overlays ~/.pepe/config.yaml under flags the user did
// not set explicitly.
func applyConfigDefaults(cmd *cobra.Command) {
	defaults, err := config.Load(config.DefaultsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}

	flags := cmd.Flags()
	if defaults.Number > 0 && !flags.Changed("number") {
		flagNumber = defaults.Number
	}
	if defaults.Concurrency > 0 && !flags.Changed("concurrency") {
		flagConcurrency = defaults.Concurrency
	}
	if defaults.TimeoutSec > 0 && !flags.Changed("timeout") {
		flagTimeout = defaults.TimeoutSec
	}
	if defaults.Method != "" && !flags.Changed("method") {
		flagMethod = defaults.Method
	}
	if defaults.UserAgent != "" && !flags.Changed("user-agent") {
		flagUserAgent = defaults.UserAgent
	}
	if defaults.Proxy != "" && !flags.Changed("proxy") {
		flagProxy = defaults.Proxy
	}
	if defaults.DisableCompression && !flags.Changed("disable-compression") {
		flagDisableCompression = true
	}
	if defaults.DisableKeepalive && !flags.Changed("disable-keepalive") {
		flagDisableKeepalive = true
	}
	if defaults.DisableRedirects && !flags.Changed("disable-redirects") {
		flagDisableRedirects = true
	}
}

// buildTemplate assembles the request template from flags, the positional
// URL, and (in curl mode) the trailing curl command.
func buildTemplate(cmd *cobra.Command, args []string) (*request.Template, error) {
	tpl := &request.Template{
		Method:    strings.ToUpper(flagMethod),
		UserAgent: flagUserAgent,
		ProxyURL:  flagProxy,

		DisableCompression: flagDisableCompression,
		DisableKeepalive:   flagDisableKeepalive,
		DisableRedirects:   flagDisableRedirects,
	}

	for _, line := range flagHeaders {
		h, err := request.ParseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		tpl.Headers = append(tpl.Headers, h)
	}
	if flagAccept != "" {
		tpl.Headers = append(tpl.Headers, request.Header{Name: "Accept", Value: flagAccept})
	}
	if flagContentType != "" {
		tpl.Headers = append(tpl.Headers, request.Header{Name: "Content-Type", Value: flagContentType})
	}

	if flagBody != "" {
		tpl.Body = []byte(flagBody)
	} else if flagBodyFile != "" {
		body, err := request.LoadBodyFile(flagBodyFile)
		if err != nil {
			return nil, err
		}
		tpl.Body = body
	}

	if flagBasicAuth != "" {
		auth, err := request.ParseBasicAuth(flagBasicAuth)
		if err != nil {
			return nil, err
		}
		tpl.Auth = auth
	}

	if flagCurl {
		// Everything after -- is the curl command.
		curlArgs := args
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			curlArgs = args[dash:]
		}
		if len(curlArgs) == 0 {
			return nil, fmt.Errorf("--curl requires a curl command after --")
		}
		parsed, err := converter.ParseCurl(strings.Join(curlArgs, " "))
		if err != nil {
			return nil, err
		}
		parsed.Apply(tpl)
		return tpl, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a target URL is required (or use --curl)")
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("expected a single URL, got %d arguments", len(args))
	}
	tpl.URL = args[0]
	return tpl, nil
}

// validate is the pre-flight check: every rejection happens here, before a
// single request is dispatched.
func validate(tpl *request.Template, opts engine.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if flagTimeout > 120 {
		return fmt.Errorf("timeout must be between 1 and 120 seconds, got %d", flagTimeout)
	}
	if opts.Concurrency > opts.Total {
		return fmt.Errorf("concurrency (%d) cannot exceed the number of requests (%d)", opts.Concurrency, opts.Total)
	}
	if !validMethods[tpl.Method] {
		return fmt.Errorf("invalid HTTP method %q", tpl.Method)
	}

	u, err := url.Parse(tpl.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q", tpl.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if tpl.ProxyURL != "" {
		p, err := url.Parse(tpl.ProxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		switch p.Scheme {
		case "http", "https", "socks5":
		case "socks4":
			return fmt.Errorf("socks4 proxies are not supported, use socks5")
		default:
			return fmt.Errorf("unsupported proxy scheme %q", p.Scheme)
		}
	}
	return nil
}
