package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/wpphist/internal/client"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/matheus3301/wpphist/internal/session"
)

const defaultTimeout = 10 * time.Second

type globalOptions struct {
	session string
	json    bool
	timeout time.Duration
}

// dial resolves the session and connects to its daemon socket.
func (o *globalOptions) dial() (*client.Client, error) {
	name := session.Resolve(o.session)
	if err := session.ValidateName(name); err != nil {
		return nil, err
	}
	c, err := client.New(session.SocketPath(name))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon for session %q: %w", name, err)
	}
	return c, nil
}

func (o *globalOptions) deadline(parent context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, o.timeout)
}

// run dials, applies the deadline and hands both to fn.
func (o *globalOptions) run(parent context.Context, fn func(context.Context, *client.Client) error) error {
	c, err := o.dial()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := o.deadline(parent)
	defer cancel()
	return fn(ctx, c)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMessages(w io.Writer, msgs []*wppv1.Message) {
	for _, m := range msgs {
		writeMessage(w, m)
	}
}

func writeMessage(w io.Writer, m *wppv1.Message) {
	ts := time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04")
	from := m.SenderName
	if from == "" {
		from = m.Sender
	}
	if m.FromMe {
		from = "me"
	}
	prefix := ""
	if m.RowID > 0 {
		prefix = fmt.Sprintf("#%d ", m.RowID)
	}
	fmt.Fprintf(w, "%s[%s] %s: %s\n", prefix, ts, from, m.Body)
}
