// Package wid resolves raw chat/contact addresses into canonical WhatsApp
// identifiers and message keys.
package wid

import (
	"errors"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// ErrInvalidAddress is matched by every *InvalidAddressError.
var ErrInvalidAddress = errors.New("invalid address")

// InvalidAddressError is returned when a raw address cannot be normalized.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

var knownServers = map[string]bool{
	types.DefaultUserServer: true,
	types.GroupServer:       true,
	types.HiddenUserServer:  true,
	types.BroadcastServer:   true,
	types.NewsletterServer:  true,
}

// Wid is the canonical, immutable address of a chat or contact.
type Wid struct {
	jid types.JID
}

// FromJID wraps an already parsed whatsmeow JID.
func FromJID(jid types.JID) Wid {
	if jid.Server == types.LegacyUserServer {
		jid.Server = types.DefaultUserServer
	}
	return Wid{jid: jid}
}

// Resolve validates and normalizes a raw address. Bare phone numbers are
// treated as user addresses on s.whatsapp.net and the legacy c.us server is
// rewritten to s.whatsapp.net.
func Resolve(raw string) (Wid, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Wid{}, &InvalidAddressError{Input: raw, Reason: "empty"}
	}

	if !strings.ContainsRune(s, '@') {
		digits, ok := phoneDigits(s)
		if !ok {
			return Wid{}, &InvalidAddressError{Input: raw, Reason: "not a phone number"}
		}
		return Wid{jid: types.NewJID(digits, types.DefaultUserServer)}, nil
	}

	jid, err := types.ParseJID(s)
	if err != nil {
		return Wid{}, &InvalidAddressError{Input: raw, Reason: err.Error()}
	}
	if jid.Server == types.LegacyUserServer {
		jid.Server = types.DefaultUserServer
	}
	if !knownServers[jid.Server] {
		return Wid{}, &InvalidAddressError{Input: raw, Reason: fmt.Sprintf("unsupported server %q", jid.Server)}
	}
	if jid.User == "" {
		return Wid{}, &InvalidAddressError{Input: raw, Reason: "missing user part"}
	}
	if jid.Server == types.DefaultUserServer {
		if _, ok := phoneDigits(jid.User); !ok {
			return Wid{}, &InvalidAddressError{Input: raw, Reason: "user part must be numeric"}
		}
	}
	return Wid{jid: jid}, nil
}

// Parse decodes an address this package formatted earlier. Unlike Resolve it
// accepts every server, so any Wid survives a String/Parse round trip.
func Parse(raw string) (Wid, error) {
	jid, err := types.ParseJID(raw)
	if err != nil {
		return Wid{}, &InvalidAddressError{Input: raw, Reason: err.Error()}
	}
	return FromJID(jid), nil
}

// MustResolve is Resolve for constant addresses in tests and fixtures.
func MustResolve(raw string) Wid {
	w, err := Resolve(raw)
	if err != nil {
		panic(err)
	}
	return w
}

func phoneDigits(s string) (string, bool) {
	s = strings.TrimPrefix(s, "+")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	digits := b.String()
	if len(digits) < 5 || len(digits) > 20 {
		return "", false
	}
	return digits, true
}

// JID returns the underlying whatsmeow JID.
func (w Wid) JID() types.JID { return w.jid }

func (w Wid) String() string {
	if w.IsZero() {
		return ""
	}
	return w.jid.String()
}

// IsZero reports whether w holds no address.
func (w Wid) IsZero() bool { return w.jid.IsEmpty() }

// IsGroup reports whether w addresses a group chat.
func (w Wid) IsGroup() bool { return w.jid.Server == types.GroupServer }

// IsLID reports whether w is a hidden-user (LID) address.
func (w Wid) IsLID() bool { return w.jid.Server == types.HiddenUserServer }

// IsDevice reports whether w addresses a specific linked device.
func (w Wid) IsDevice() bool { return w.jid.Device > 0 }

// ChatID returns the chat-level address, dropping any device part.
func (w Wid) ChatID() Wid { return Wid{jid: w.jid.ToNonAD()} }

// Equal compares normalized string forms.
func (w Wid) Equal(o Wid) bool { return w.String() == o.String() }

func (w Wid) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Wid) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*w = Wid{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
