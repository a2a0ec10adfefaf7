// CLAUDE:SUMMARY CLI entry point for marker: one-shot highlighting of an HTML file, HTTP daemon, MCP over stdio or QUIC.
// Command marker wraps ranges of HTML text in highlight elements.
//
// Usage:
//
//	marker -in page.html -find "some text"           # highlight and print HTML
//	marker -in page.html -start 10 -end 42 -out o.html
//	marker -in page.html -find foo -export           # print highlights as markdown
//	marker -addr :8080                               # HTTP daemon
//	marker -mcp                                      # MCP over stdio
//	marker -addr :8080 -mcp-quic :9444               # HTTP + MCP over QUIC
//	marker -dial host:9444 -in page.html -find foo   # one-shot against a QUIC server
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/rangewrap/marker"
	"github.com/hazyhaar/rangewrap/mcpquic"
	"github.com/hazyhaar/rangewrap/mutation"
	"github.com/hazyhaar/rangewrap/shield"
)

const version = "0.1.0"

var errUsage = errors.New("usage: marker [-dial <addr>] -in <file> [-find <text> | -start N -end N] | -addr <addr> | -mcp | -mcp-quic <addr>")

type options struct {
	configPath string
	addr       string

	in      string
	out     string
	find    string
	start   int
	end     int
	style   string
	journal string
	export  bool

	mcpStdio bool
	mcpQUIC  string
	tlsCert  string
	tlsKey   string

	dial     string
	insecure bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to marker.yaml config file")
	flag.StringVar(&o.addr, "addr", "", "HTTP listen address (daemon mode)")
	flag.StringVar(&o.in, "in", "", "HTML file to highlight (one-shot mode, - for stdin)")
	flag.StringVar(&o.out, "out", "", "output file (default stdout)")
	flag.StringVar(&o.find, "find", "", "highlight the first occurrence of this text")
	flag.IntVar(&o.start, "start", -1, "start character offset in the body text")
	flag.IntVar(&o.end, "end", -1, "end character offset in the body text")
	flag.StringVar(&o.style, "style", "", "style attribute for the wrappers")
	flag.StringVar(&o.journal, "journal", "", "append the mutation batch to this file (JSON lines)")
	flag.BoolVar(&o.export, "export", false, "print highlights as markdown instead of HTML")
	flag.BoolVar(&o.mcpStdio, "mcp", false, "serve MCP tools over stdio")
	flag.StringVar(&o.mcpQUIC, "mcp-quic", "", "serve MCP tools over QUIC on this address")
	flag.StringVar(&o.tlsCert, "tls-cert", "", "TLS certificate for -mcp-quic (self-signed when empty)")
	flag.StringVar(&o.tlsKey, "tls-key", "", "TLS key for -mcp-quic")
	flag.StringVar(&o.dial, "dial", "", "run one-shot mode against the MCP QUIC server at this address")
	flag.BoolVar(&o.insecure, "insecure", false, "skip server certificate verification for -dial")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger, o)
	stop()
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("marker: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.dial != "" {
		if o.in == "" {
			return errUsage
		}
		c, err := mcpquic.Dial(ctx, o.dial, mcpquic.ClientTLSConfig(o.insecure))
		if err != nil {
			return err
		}
		defer c.Close()
		logger.Debug("marker: connected", "addr", o.dial)
		return oneShot(ctx, &remoteMarker{c: c}, o)
	}

	cfg, err := resolveConfig(o.configPath, o.addr)
	if err != nil {
		return err
	}
	cfg.Logger = logger
	m := marker.New(*cfg)

	if o.in != "" {
		return oneShot(ctx, m, o)
	}

	if o.mcpStdio {
		srv := newMCPServer(m)
		logger.Info("marker: MCP over stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	if o.addr == "" && o.configPath == "" && o.mcpQUIC == "" {
		return errUsage
	}

	if o.mcpQUIC != "" {
		ql, err := listenQUIC(m, o, logger)
		if err != nil {
			return err
		}
		defer ql.Close()
		go func() {
			logger.Info("marker: MCP QUIC starting", "addr", ql.Addr().String())
			if err := ql.Serve(ctx); err != nil && ctx.Err() == nil {
				logger.Error("marker: MCP QUIC", "error", err)
			}
		}()
		if o.addr == "" && o.configPath == "" {
			<-ctx.Done()
			return nil
		}
	}

	return serveHTTP(ctx, m, m.Config().Addr, logger)
}

func resolveConfig(configPath, addr string) (*marker.Config, error) {
	cfg := &marker.Config{}
	if configPath != "" {
		var err error
		if cfg, err = marker.LoadConfigFile(configPath); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	return cfg, nil
}

func newMCPServer(m *marker.Marker) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "marker",
		Version: version,
	}, nil)
	m.RegisterMCP(srv)
	return srv
}

func listenQUIC(m *marker.Marker, o options, logger *slog.Logger) (*mcpquic.Listener, error) {
	var tlsCfg *tls.Config
	var err error
	if o.tlsCert != "" && o.tlsKey != "" {
		tlsCfg, err = mcpquic.ServerTLSConfig(o.tlsCert, o.tlsKey)
	} else {
		tlsCfg, err = mcpquic.SelfSignedTLSConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("mcp quic tls: %w", err)
	}
	return mcpquic.NewListener(o.mcpQUIC, tlsCfg, newMCPServer(m), logger)
}

func serveHTTP(ctx context.Context, m *marker.Marker, addr string, logger *slog.Logger) error {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(m.Config().MaxDocumentSize) {
		r.Use(mw)
	}
	m.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("marker: HTTP starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("marker: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// oneShot highlights a range of the input file and writes the result.
func oneShot(ctx context.Context, m highlighter, o options) error {
	page, err := readInput(o.in)
	if err != nil {
		return fmt.Errorf("read %s: %w", o.in, err)
	}
	info, err := m.Open(ctx, page)
	if err != nil {
		return err
	}
	defer m.Close(ctx, info.ID)

	spec := &marker.RangeSpec{}
	switch {
	case o.find != "":
		spec.Find = o.find
	case o.start >= 0 && o.end >= 0:
		spec.Text = &marker.TextSpan{Start: o.start, End: o.end}
	default:
		return errors.New("one-shot mode needs -find or -start/-end")
	}

	res, err := m.Highlight(ctx, marker.HighlightRequest{DocID: info.ID, Style: o.style, Range: spec})
	if err != nil {
		return err
	}
	if o.journal != "" {
		if err := appendBatch(o.journal, res.Batch); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	var body string
	if o.export {
		body, err = m.ExportMarkdown(ctx, info.ID)
	} else {
		body, err = m.Render(ctx, info.ID)
	}
	if err != nil {
		return err
	}

	if o.out == "" {
		_, err = io.WriteString(os.Stdout, body)
		return err
	}
	return os.WriteFile(o.out, []byte(body), 0o644)
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func appendBatch(path string, b *mutation.Batch) error {
	line, err := mutation.MarshalBatch(b)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
