// Package nntpclient dials an NNTP server and fetches article bodies,
// merging the teacher's internal/nntp provider.go (dial/greeting/
// AUTHINFO over net/textproto) and repository.go (BODY fetch) into one
// client. Unlike the teacher, it never hands a caller p.conn.DotReader()
// for the body: textproto.Reader's DotReader and ReadCodeLine assume a
// blocking io.Reader and do their own dot-unstuffing, which would
// duplicate the unstuffing internal/article already owns. Instead this
// client reads raw bytes straight off the connection's bufio.Reader
// (textproto.Conn's promoted Reader.R field) into an *article.Decoder,
// so the decoder parses the status line and payload itself.
package nntpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/usenetkit/nzbdecode/internal/article"
	"github.com/usenetkit/nzbdecode/internal/config"
	"github.com/usenetkit/nzbdecode/internal/infra/logger"
)

// dialTimeout bounds the initial TCP/TLS handshake.
const dialTimeout = 10 * time.Second

// readChunk is how many bytes a single Fetch read asks the bufio.Reader
// for at a time.
const readChunk = 32 * 1024

// commandRate caps how many commands per second this client issues
// against one connection, a courtesy Usenet providers commonly expect
// and the teacher never implemented.
const commandRate = 10

// Client is one authenticated connection to one NNTP server.
type Client struct {
	cfg       config.ServerConfig
	conn      *textproto.Conn
	dec       *article.Decoder
	limiter   *rate.Limiter
	sessionID uuid.UUID
	log       *logger.Logger
}

// Dial opens a connection to cfg, performs the greeting and (if
// credentials are set) AUTHINFO exchange, and returns a ready Client.
func Dial(ctx context.Context, cfg config.ServerConfig, bufferCapHint int, log *logger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	dialer := &net.Dialer{Timeout: dialTimeout}

	var rawConn net.Conn
	var err error
	if cfg.TLS {
		tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
		rawConn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		rawConn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("nntpclient: dial %s: %w", addr, err)
	}

	c := &Client{
		cfg:       cfg,
		conn:      textproto.NewConn(rawConn),
		dec:       article.NewDecoder(bufferCapHint),
		limiter:   rate.NewLimiter(rate.Limit(commandRate), 1),
		sessionID: uuid.New(),
		log:       log,
	}

	if _, _, err := c.conn.ReadCodeLine(200); err != nil {
		if _, _, err := c.conn.ReadCodeLine(201); err != nil {
			c.conn.Close()
			return nil, fmt.Errorf("nntpclient: greeting from %s: %w", cfg.ID, err)
		}
	}

	if err := c.authenticate(); err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("nntpclient: authenticate against %s: %w", cfg.ID, err)
	}

	log.Debug("nntpclient: session %s connected to %s (%s)", c.sessionID, cfg.ID, addr)
	return c, nil
}

func (c *Client) authenticate() error {
	if c.cfg.Username == "" {
		return nil
	}
	if _, err := c.conn.Cmd("AUTHINFO USER %s", c.cfg.Username); err != nil {
		return err
	}
	if _, _, err := c.conn.ReadCodeLine(381); err != nil {
		return err
	}
	if _, err := c.conn.Cmd("AUTHINFO PASS %s", c.cfg.Password); err != nil {
		return err
	}
	_, _, err := c.conn.ReadCodeLine(281)
	return err
}

// Fetch retrieves and decodes the body of a single article. The
// returned Response carries status code 222 with decoded Data on
// success, or a non-222 status code (most commonly 430, article not
// found) with no Data on failure — callers distinguish the two by
// StatusCode rather than by a returned error, matching how the wire
// protocol itself reports a missing article.
func (c *Client) Fetch(ctx context.Context, messageID string) (*article.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	formatted := messageID
	if !strings.HasPrefix(formatted, "<") {
		formatted = "<" + formatted + ">"
	}
	if _, err := c.conn.Cmd("BODY %s", formatted); err != nil {
		return nil, fmt.Errorf("nntpclient: BODY command: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		buf := c.dec.WritableTail(readChunk)
		n, readErr := c.conn.R.Read(buf)
		if n > 0 {
			responses, procErr := c.dec.Process(n)
			if procErr != nil {
				if kind, ok := article.ClassifyError(procErr); ok {
					c.log.Error("nntpclient: %s decode error kind=%s: %v", messageID, kind, procErr)
				}
				return nil, fmt.Errorf("nntpclient: decoding response for %s: %w", messageID, procErr)
			}
			if len(responses) > 0 {
				resp := responses[0]
				for _, kind := range resp.Errors {
					c.log.Debug("nntpclient: %s tolerated error kind=%s", messageID, kind)
				}
				c.log.Debug("nntpclient: %s status=%d decoded=%s", messageID, resp.StatusCode, humanize.Bytes(resp.BytesDecoded))
				return &resp, nil
			}
		}
		if readErr != nil {
			if c.dec.Truncated() {
				c.log.Error("nntpclient: %s error kind=%s: connection ended mid-response: %v", messageID, article.ErrorTruncated, readErr)
			}
			return nil, fmt.Errorf("nntpclient: reading body for %s: %w", messageID, readErr)
		}
	}
}

// Close sends QUIT and releases the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.conn.Cmd("QUIT")
	return c.conn.Close()
}
