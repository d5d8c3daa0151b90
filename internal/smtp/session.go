package smtp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/telliott/maildrop/internal/store"
)

// Command prefixes matched case-insensitively against the whole line.
// Matching is on the line prefix, not the first token, which is what the
// protocol's existing clients rely on.
const (
	cmdHelo     = "helo"
	cmdMailFrom = "mail from:"
	cmdRcptTo   = "rcpt to:"
	cmdData     = "data"
	cmdQuit     = "quit"
)

// addrStripper removes the spaces and angle brackets that clients wrap
// around envelope and header addresses.
var addrStripper = strings.NewReplacer(" ", "", "<", "", ">", "")

// senderPattern builds the allow-pattern for envelope senders: a non-empty
// local part, an at-sign, then one or more domain labels ending in the
// given suffix.
func senderPattern(suffix string) *regexp.Regexp {
	return regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+` + regexp.QuoteMeta(suffix) + `$`)
}

// Session represents a single client connection and manages the envelope
// state machine. Each session owns its connection, sender, recipient list
// and in-progress message record; sessions share nothing with each other.
type Session struct {
	id       int64
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	store    store.Store
	hostname string
	senderRe *regexp.Regexp

	// Envelope state. The sender is set at most once per session and the
	// recipient list is append-only. Neither is cleared after a completed
	// data transfer, so one session can submit several messages reusing
	// the same envelope.
	greeted    bool
	sender     string
	recipients []string
}

// NewSession creates a new session for the given connection.
func NewSession(id int64, conn net.Conn, st store.Store, hostname string, senderRe *regexp.Regexp) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		store:    st,
		hostname: hostname,
		senderRe: senderRe,
	}
}

// Handle runs the session, processing commands until the client quits,
// disconnects, or a read fails. The connection is released on every exit
// path.
func (s *Session) Handle(ctx context.Context) {
	defer s.conn.Close()

	s.reply("220 %s ready, connection accepted on %s", s.hostname, time.Now().Format(time.RFC1123))

	for {
		select {
		case <-ctx.Done():
			s.reply("421 Service shutting down")
			return
		default:
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				slog.Error("read error waiting for command", "session", s.id, "error", err)
			}
			return
		}
		line = strings.TrimRight(line, "\r\n")

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, cmdHelo):
			s.handleHelo()
		case strings.HasPrefix(lower, cmdMailFrom):
			s.handleMailFrom(line)
		case strings.HasPrefix(lower, cmdRcptTo):
			s.handleRcptTo(line)
		case strings.HasPrefix(lower, cmdData):
			if s.handleData(ctx) {
				return
			}
		case strings.HasPrefix(lower, cmdQuit):
			s.handleQuit()
			return
		default:
			s.reply("500 Unrecognized command")
		}
	}
}

// handleHelo marks the session greeted and echoes both endpoint addresses.
// The greeting is tracked but not required before the other commands.
func (s *Session) handleHelo() {
	s.greeted = true
	s.reply("250 Hello %s, this is %s", s.conn.RemoteAddr(), s.conn.LocalAddr())
}

// handleMailFrom validates and stores the envelope sender. A sender can be
// set once per session; an address outside the allowed domain is rejected
// and leaves the sender unset.
func (s *Session) handleMailFrom(line string) {
	if s.sender != "" {
		s.reply("503 Sender already provided")
		return
	}

	addr := addrStripper.Replace(line[len(cmdMailFrom):])
	if !s.senderRe.MatchString(addr) {
		s.reply("500 Sender domain %q is not allowed here, try again", senderDomain(addr))
		return
	}

	s.sender = addr
	s.reply("250 Sender %s accepted", addr)
}

// handleRcptTo appends an envelope recipient. Recipients are not validated
// and duplicates are kept.
func (s *Session) handleRcptTo(line string) {
	rcpt := addrStripper.Replace(line[len(cmdRcptTo):])
	s.recipients = append(s.recipients, rcpt)
	s.reply("250 Recipient %s added", rcpt)
}

// handleData runs the data-transfer phase once the envelope has a sender
// and at least one recipient. The record is handed to the store even when
// the read loop fails partway, so whatever was collected survives. It
// returns true when the session must end because the channel failed.
func (s *Session) handleData(ctx context.Context) bool {
	if s.sender == "" {
		s.reply("503 A sender is required before mail data")
		return false
	}
	if len(s.recipients) == 0 {
		s.reply("503 At least one recipient is required before mail data")
		return false
	}

	s.reply("354 Start mail input, end with a single '.' on a line by itself")

	msg, err := s.readMessage()
	if err != nil {
		slog.Error("read error during mail data", "session", s.id, "error", err)
	}

	if storeErr := s.store.Write(ctx, msg); storeErr != nil {
		// The peer has already been told the message was received; the
		// record is dropped without surfacing the failure.
		slog.Error("failed to persist message",
			"session", s.id,
			"store", s.store.Name(),
			"error", storeErr,
		)
	}

	return err != nil
}

// handleQuit acknowledges the quit and lets Handle release the connection.
func (s *Session) handleQuit() {
	s.reply("221 Closing connection at %s, goodbye", time.Now().Format(time.RFC1123))
}

// reply writes one status line to the peer. Lines are terminated with
// "\n\r" (newline then carriage return), which is what the protocol's
// existing clients expect.
func (s *Session) reply(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if _, err := s.writer.WriteString(line + "\n\r"); err != nil {
		slog.Error("failed to write to client", "session", s.id, "error", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		slog.Error("failed to flush to client", "session", s.id, "error", err)
	}
}

// senderDomain returns the part after the last at-sign, or the whole
// string when there is none. Used only for rejection messages.
func senderDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
