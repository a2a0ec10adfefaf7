// CLAUDE:SUMMARY MCP client over QUIC: dials a listener, sends the preamble, calls tools and decodes their JSON results.
package mcpquic

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"
)

// ErrToolFailed wraps the message of a tool result flagged as an error.
var ErrToolFailed = errors.New("mcpquic: tool failed")

const handshakeTimeout = 10 * time.Second

// Client is one MCP session carried by the first stream of a QUIC
// connection.
type Client struct {
	addr   string
	tlsCfg *tls.Config
	name   string

	conn    *quic.Conn
	stream  *quic.Stream
	session *mcp.ClientSession
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientName sets the implementation name announced during the MCP
// handshake (default "marker-quic-client").
func WithClientName(name string) ClientOption {
	return func(c *Client) { c.name = name }
}

// NewClient prepares a client for addr. A nil tlsCfg verifies the server
// certificate.
func NewClient(addr string, tlsCfg *tls.Config, opts ...ClientOption) *Client {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(false)
	}
	c := &Client{addr: addr, tlsCfg: tlsCfg, name: "marker-quic-client"}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to addr and completes the MCP handshake.
func Dial(ctx context.Context, addr string, tlsCfg *tls.Config, opts ...ClientOption) (*Client, error) {
	c := NewClient(addr, tlsCfg, opts...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect dials the server, opens the session stream and initializes MCP.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := quic.DialAddr(ctx, c.addr, c.tlsCfg, ProductionQUICConfig())
	if err != nil {
		return &ConnectionError{RemoteAddr: c.addr, Code: ConnErrorInternal, Err: err}
	}
	stream, err := openSession(ctx, conn)
	if err != nil {
		return err
	}
	c.conn, c.stream = conn, stream

	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	impl := &mcp.Implementation{Name: c.name, Version: "0.1.0"}
	session, err := mcp.NewClient(impl, nil).Connect(hctx, &mcp.IOTransport{
		Reader: io.NopCloser(stream),
		Writer: streamWriteCloser{stream},
	}, nil)
	if err != nil {
		c.closeTransport()
		return fmt.Errorf("mcp connect %s: %w", c.addr, err)
	}
	c.session = session
	return nil
}

// openSession checks the negotiated protocol and opens the stream that
// carries the session, prefixed with the magic bytes.
func openSession(ctx context.Context, conn *quic.Conn) (*quic.Stream, error) {
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		conn.CloseWithError(ConnErrorUnsupportedALPN, "bad ALPN")
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedALPN, alpn)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "stream open failed")
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := SendMagicBytes(stream); err != nil {
		stream.Close()
		conn.CloseWithError(ConnErrorProtocolViolation, "magic bytes failed")
		return nil, err
	}
	return stream, nil
}

func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if c.session == nil {
		return nil, ErrConnectionClosed
	}
	return c.session.ListTools(ctx, nil)
}

// CallTool returns the raw tool result; tool errors are not converted.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.call(ctx, name, args)
}

func (c *Client) call(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	if c.session == nil {
		return nil, ErrConnectionClosed
	}
	return c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

// Call invokes a tool and returns its text content. A result flagged as an
// error comes back as ErrToolFailed carrying the tool's message.
func (c *Client) Call(ctx context.Context, name string, args any) (string, error) {
	res, err := c.call(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	var sb strings.Builder
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return "", fmt.Errorf("%w: %s: %s", ErrToolFailed, name, sb.String())
	}
	return sb.String(), nil
}

// CallJSON invokes a tool and decodes its JSON text into out.
func (c *Client) CallJSON(ctx context.Context, name string, args, out any) error {
	text, err := c.Call(ctx, name, args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.session == nil {
		return ErrConnectionClosed
	}
	return c.session.Ping(ctx, nil)
}

// Close ends the session and the connection.
func (c *Client) Close() error {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	return c.closeTransport()
}

func (c *Client) closeTransport() error {
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	if c.conn != nil {
		err := c.conn.CloseWithError(ConnErrorNoError, "client closing")
		c.conn = nil
		return err
	}
	return nil
}
