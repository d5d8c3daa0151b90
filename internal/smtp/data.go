package smtp

import (
	"fmt"
	"strings"

	"github.com/telliott/maildrop/internal/mail"
)

// Header prefixes recognized during the data-transfer phase, matched
// case-insensitively against the line prefix.
const (
	hdrVersion     = "mime-version:"
	hdrDate        = "date:"
	hdrFrom        = "from:"
	hdrTo          = "to:"
	hdrSubject     = "subject:"
	hdrContentType = "content-type:"
)

// readMessage consumes mail data lines until the lone-dot sentinel and
// sorts each line into a recognized header field or the body.
//
// Header lines are recognized anywhere in the stream, even after body
// content has started, and a repeated header replaces the earlier value.
// Blank lines are skipped; they never separate headers from body. Every
// other line is appended verbatim to the body. The acceptance reply is
// written as soon as the sentinel is read, before the record is stored.
//
// On a read error the partially built record is returned along with the
// error so the caller can still persist what was collected.
func (s *Session) readMessage() (*mail.Message, error) {
	msg := &mail.Message{ID: s.id}

	for {
		raw, err := s.reader.ReadString('\n')
		if err != nil {
			return msg, fmt.Errorf("reading mail data: %w", err)
		}
		line := strings.TrimRight(raw, "\r\n")

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, hdrVersion):
			// The version value carries no spaces, embedded or otherwise.
			msg.Version = strings.ReplaceAll(line[len(hdrVersion):], " ", "")
		case strings.HasPrefix(lower, hdrDate):
			msg.Date = trimLeadingSpace(line[len(hdrDate):])
		case strings.HasPrefix(lower, hdrFrom):
			msg.From = addrStripper.Replace(line[len(hdrFrom):])
		case strings.HasPrefix(lower, hdrTo):
			msg.To = addrStripper.Replace(line[len(hdrTo):])
		case strings.HasPrefix(lower, hdrSubject):
			msg.Subject = trimLeadingSpace(line[len(hdrSubject):])
		case strings.HasPrefix(lower, hdrContentType):
			msg.ContentType = trimLeadingSpace(line[len(hdrContentType):])
		case line == "":
			// Blank lines are collapsed, not treated as a section break.
		case line == ".":
			s.reply("250 Message received, it will go in the postbox")
			return msg, nil
		default:
			msg.Body = append(msg.Body, line)
		}
	}
}

// trimLeadingSpace strips at most one leading space. Date and subject
// values may legitimately contain further spaces.
func trimLeadingSpace(s string) string {
	if strings.HasPrefix(s, " ") {
		return s[1:]
	}
	return s
}
