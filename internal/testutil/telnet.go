package testutil

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// TelnetClient is a minimal Telnet client for frontend tests.
type TelnetClient struct {
	conn    net.Conn
	reader  *bufio.Reader
	t       *testing.T
	seen    strings.Builder
	pending string // read past the last match
}

// NewTelnetClient dials addr and registers cleanup with t.
//
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return &TelnetClient{conn: conn, reader: bufio.NewReader(conn), t: t}
}

// ReadUntil reads until substr has arrived or timeout elapses, and returns
// the output up to and including the first match. Bytes received after the
// match are kept for the next call.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	buf := c.pending
	c.pending = ""
	tmp := make([]byte, 1024)
	for {
		if i := strings.Index(buf, substr); i >= 0 {
			end := i + len(substr)
			c.pending = buf[end:]
			return buf[:end]
		}
		n, err := c.reader.Read(tmp)
		if n > 0 {
			buf += string(tmp[:n])
			c.seen.Write(tmp[:n])
			continue
		}
		if err != nil {
			c.pending = buf
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, buf, err)
		}
	}
}

// Transcript returns everything received so far.
func (c *TelnetClient) Transcript() string {
	return c.seen.String()
}

// Send writes text followed by CRLF.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
