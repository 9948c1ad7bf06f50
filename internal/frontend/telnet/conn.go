package telnet

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// Conn is one Telnet client. Reads strip protocol commands and yield text
// lines; writes are serialized so narration and prompts never interleave.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader

	mu           sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. A zero timeout disables that deadline.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead so single-line commands
// flow without extra round trips.
func (c *Conn) Negotiate() error {
	return c.write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line of text without its terminator. Telnet
// commands and control characters other than tab are discarded; CR, LF and
// CRLF all end a line.
//
// Postcondition: On error the partial line read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == IAC:
			if _, err := skipCommand(c.reader); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b >= 32 || b == '\t':
			line.WriteByte(b)
		}
	}
}

// skipCommand consumes the remainder of a command whose IAC was already
// read. It reports whether the command was an escaped literal 0xFF.
func skipCommand(r io.ByteReader) (literal bool, err error) {
	cmd, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch cmd {
	case IAC:
		return true, nil
	case WILL, WONT, DO, DONT:
		_, err = r.ReadByte()
		return false, err
	case SB:
		var prev byte
		for {
			b, err := r.ReadByte()
			if err != nil {
				return false, err
			}
			if prev == IAC && b == SE {
				return false, nil
			}
			if prev == IAC && b == IAC {
				b = 0
			}
			prev = b
		}
	default:
		return false, nil
	}
}

// WriteLine sends text followed by CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.write([]byte(text + "\r\n"))
}

// WriteLines sends every line, each followed by CRLF, in a single write.
func (c *Conn) WriteLines(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	return c.write([]byte(strings.Join(lines, "\r\n") + "\r\n"))
}

// WritePrompt sends prompt without a line terminator.
func (c *Conn) WritePrompt(prompt string) error {
	return c.write([]byte(prompt))
}

// Write sends raw bytes.
func (c *Conn) Write(data []byte) error {
	return c.write(data)
}

func (c *Conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection. Blocked reads return an error.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// FilterIAC removes Telnet commands from input, keeping escaped 0xFF bytes.
// An incomplete trailing command is dropped.
func FilterIAC(input []byte) []byte {
	r := bytes.NewReader(input)
	out := make([]byte, 0, len(input))
	for {
		b, err := r.ReadByte()
		if err != nil {
			return out
		}
		if b != IAC {
			out = append(out, b)
			continue
		}
		literal, err := skipCommand(r)
		if err != nil {
			return out
		}
		if literal {
			out = append(out, IAC)
		}
	}
}
