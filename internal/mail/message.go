// Package mail defines the message record built during the data-transfer
// phase of a session.
package mail

// Message is the record assembled from one mail payload: the recognized
// header fields plus every body line in arrival order.
//
// The From and To fields come from the payload's own header lines. They are
// independent of the envelope sender and recipients set by the MAIL FROM and
// RCPT TO commands, and the two are never cross-checked.
type Message struct {
	// ID is the connection id of the session that received the message.
	// Messages are not numbered separately; a session has at most one
	// data transfer in flight.
	ID int64

	Version     string
	Date        string
	From        string
	To          string
	Subject     string
	ContentType string

	// Body holds the non-header, non-blank lines exactly as received.
	Body []string
}
