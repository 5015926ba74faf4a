// Package sdk provides the liquidstore client surface: a remote TCP
// client speaking the line protocol, and a discovery helper that picks
// remote or embedded mode from the environment. Both modes satisfy
// store.Store, so callers are indifferent to where the data lives.
package sdk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

const (
	// maxAttempts is how many times a request is tried before the client
	// surfaces a terminal connection error.
	maxAttempts = 3

	// backoffStep is the linear backoff unit between attempts.
	backoffStep = 200 * time.Millisecond
)

// Client is a remote liquidstore backend. It maintains zero or one live
// connection, established lazily on first use, and retries transient
// transport failures. Semantic errors are never retried.
type Client struct {
	addr string
	log  logger.Logger

	mu sync.Mutex
	// conn and br are replaced together on reconnect, so a fresh
	// connection can never read stale buffered bytes.
	conn net.Conn
	br   *bufio.Reader
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// Dial creates a client for the given address. No I/O happens until the
// first operation.
func Dial(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr: addr,
		log:  logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close drops the live connection, if any. The next operation reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

func (c *Client) dropLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

func (c *Client) connectLocked(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// roundTrip sends one command line and reads one response line, retrying
// transport failures with linear backoff. The returned string is the raw
// response line.
func (c *Client) roundTrip(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * backoffStep):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if c.conn == nil {
			if err := c.connectLocked(ctx); err != nil {
				c.log.Debug("connect failed", "addr", c.addr, "error", err)
				lastErr = err
				continue
			}
		}

		if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
			lastErr = err
			_ = c.dropLocked()
			continue
		}

		line, err := c.br.ReadString('\n')
		if err != nil {
			lastErr = err
			_ = c.dropLocked()
			continue
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	return "", domain.ErrConnectionFailed.WithCause(lastErr)
}

// exec runs a command and splits the response into its verdict. Semantic
// errors come back as domain sentinels, exactly as the embedded engine
// would return them.
func (c *Client) exec(ctx context.Context, cmd string) (payload string, err error) {
	resp, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return "", err
	}

	switch {
	case resp == "OK":
		return "", nil
	case strings.HasPrefix(resp, "OK "):
		return resp[len("OK "):], nil
	case strings.HasPrefix(resp, "ERR "):
		return "", domain.FromReason(resp[len("ERR "):])
	default:
		return "", domain.Internalf("unexpected response: %s", resp)
	}
}

// checkIdent rejects identifiers the line protocol cannot carry.
func checkIdent(ids ...string) error {
	for _, id := range ids {
		if id == "" || strings.ContainsAny(id, " \t\r\n") {
			return domain.ErrBadRequest.WithCause(fmt.Errorf("invalid identifier %q", id))
		}
	}
	return nil
}

// Get implements store.Reader.
func (c *Client) Get(ctx context.Context, persona, app, key string) (domain.Value, error) {
	if err := checkIdent(persona, app, key); err != nil {
		return nil, err
	}
	payload, err := c.exec(ctx, fmt.Sprintf("GET %s %s %s", persona, app, key))
	if err != nil {
		return nil, err
	}
	return domain.Value(payload), nil
}

// Set implements store.Writer.
func (c *Client) Set(ctx context.Context, persona, app, key string, value domain.Value) error {
	if err := checkIdent(persona, app, key); err != nil {
		return err
	}
	if !domain.ValidValue(value) {
		return domain.ErrBadRequest.WithCause(fmt.Errorf("value is not valid JSON"))
	}
	// Pretty-printed input is valid JSON but spans lines; compact it so
	// the command stays a single protocol line.
	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return domain.ErrBadRequest.WithCause(err)
	}
	_, err := c.exec(ctx, fmt.Sprintf("SET %s %s %s %s", persona, app, key, compact.String()))
	return err
}

// Delete implements store.Writer.
func (c *Client) Delete(ctx context.Context, persona, app, key string) error {
	if err := checkIdent(persona, app, key); err != nil {
		return err
	}
	_, err := c.exec(ctx, fmt.Sprintf("DEL %s %s %s", persona, app, key))
	return err
}

// ListPersonas implements store.Enumerator.
func (c *Client) ListPersonas(ctx context.Context) ([]string, error) {
	payload, err := c.exec(ctx, "LIST_PERSONAS")
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return out, nil
}

// ListApps implements store.Enumerator.
func (c *Client) ListApps(ctx context.Context, persona string) ([]string, error) {
	if err := checkIdent(persona); err != nil {
		return nil, err
	}
	payload, err := c.exec(ctx, "LIST_APPS "+persona)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return out, nil
}

// DumpApp implements store.Exporter.
func (c *Client) DumpApp(ctx context.Context, persona, app string) (domain.AppData, error) {
	if err := checkIdent(persona, app); err != nil {
		return nil, err
	}
	payload, err := c.exec(ctx, fmt.Sprintf("DUMP %s %s", persona, app))
	if err != nil {
		return nil, err
	}
	var out domain.AppData
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return out, nil
}

// DumpAppGlobal implements store.Exporter.
func (c *Client) DumpAppGlobal(ctx context.Context, app string) (map[string]domain.AppData, error) {
	if err := checkIdent(app); err != nil {
		return nil, err
	}
	payload, err := c.exec(ctx, "DUMP_APP "+app)
	if err != nil {
		return nil, err
	}
	var out map[string]domain.AppData
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return out, nil
}

// GetGlobal implements store.Searcher.
func (c *Client) GetGlobal(ctx context.Context, app, key string) (domain.Value, string, error) {
	if err := checkIdent(app, key); err != nil {
		return nil, "", err
	}
	payload, err := c.exec(ctx, fmt.Sprintf("GET_GLOBAL %s %s", app, key))
	if err != nil {
		return nil, "", err
	}
	var out struct {
		Persona string       `json:"persona"`
		Value   domain.Value `json:"value"`
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, "", domain.ErrInternal.WithCause(err)
	}
	return out.Value, out.Persona, nil
}

// MoveKey implements store.Orchestrator.
func (c *Client) MoveKey(ctx context.Context, srcPersona, dstPersona, app, key string) error {
	if err := checkIdent(srcPersona, dstPersona, app, key); err != nil {
		return err
	}
	_, err := c.exec(ctx, fmt.Sprintf("MOVE %s %s %s %s", srcPersona, dstPersona, app, key))
	return err
}

// Ping checks connectivity with one round trip.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, "PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return domain.Internalf("unexpected response: %s", resp)
	}
	return nil
}

var _ store.Store = (*Client)(nil)
