package wid

import (
	"strings"
)

// MsgKey uniquely identifies one message within one chat.
type MsgKey struct {
	ChatID      Wid    `json:"chat_id"`
	FromMe      bool   `json:"from_me"`
	ID          string `json:"id"`
	Participant Wid    `json:"participant,omitzero"`
}

// IsZero reports whether the key is unset.
func (k MsgKey) IsZero() bool {
	return k.ChatID.IsZero() && k.ID == ""
}

// String returns the serialized form <fromMe>_<chat>_<id>[_<participant>].
func (k MsgKey) String() string {
	from := "false"
	if k.FromMe {
		from = "true"
	}
	s := from + "_" + k.ChatID.String() + "_" + k.ID
	if !k.Participant.IsZero() {
		s += "_" + k.Participant.String()
	}
	return s
}

// ParseMsgKey parses the serialized message key form.
func ParseMsgKey(raw string) (MsgKey, error) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) != 3 && len(parts) != 4 {
		return MsgKey{}, &InvalidAddressError{Input: raw, Reason: "message key must be <fromMe>_<chat>_<id>[_<participant>]"}
	}

	var key MsgKey
	switch parts[0] {
	case "true":
		key.FromMe = true
	case "false":
	default:
		return MsgKey{}, &InvalidAddressError{Input: raw, Reason: "fromMe must be true or false"}
	}

	chat, err := keyAddress(parts[1])
	if err != nil {
		return MsgKey{}, err
	}
	key.ChatID = chat.ChatID()

	if parts[2] == "" {
		return MsgKey{}, &InvalidAddressError{Input: raw, Reason: "empty message id"}
	}
	key.ID = parts[2]

	if len(parts) == 4 {
		p, err := keyAddress(parts[3])
		if err != nil {
			return MsgKey{}, err
		}
		key.Participant = p
	}
	return key, nil
}

// keyAddress takes caller-formatted addresses as well as any full address
// the history store hands out, e.g. bot or hosted chats.
func keyAddress(s string) (Wid, error) {
	w, err := Resolve(s)
	if err == nil || !strings.ContainsRune(s, '@') {
		return w, err
	}
	stored, perr := Parse(s)
	if perr != nil || stored.jid.User == "" || knownServers[stored.jid.Server] {
		return Wid{}, err
	}
	return stored, nil
}
