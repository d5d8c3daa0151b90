package stdout

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telliott/maildrop/internal/mail"
)

func TestWrite_PrintsRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	st := NewWithWriter(&buf)

	msg := &mail.Message{
		ID:      9,
		From:    "alice@cs.usyd.edu.au",
		To:      "bob@example.com",
		Subject: "Hi",
		Body:    []string{"hello world"},
	}
	require.NoError(t, st.Write(context.Background(), msg))

	out := buf.String()
	assert.Contains(t, out, "Message 9")
	assert.Contains(t, out, "From: alice@cs.usyd.edu.au")
	assert.Contains(t, out, "To: bob@example.com")
	assert.Contains(t, out, "Subject: Hi")
	assert.Contains(t, out, "hello world")
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stdout", New().Name())
}
