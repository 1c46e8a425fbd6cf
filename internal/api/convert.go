package api

import (
	"context"
	"errors"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps a history error to a gRPC status.
func toStatus(op string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		switch history.Classify(err) {
		case history.OutcomeInvalidInput:
			code = codes.InvalidArgument
		case history.OutcomeNotFound:
			code = codes.NotFound
		case history.OutcomeTimeout:
			code = codes.DeadlineExceeded
		case history.OutcomeCanceled:
			code = codes.Canceled
		default:
			code = codes.Internal
		}
	}
	return grpcstatus.Errorf(code, "%s: %v", op, err)
}

func messageToWire(m history.Message) *wppv1.Message {
	return &wppv1.Message{
		RowID:      m.RowID,
		Key:        m.Key.String(),
		ChatID:     m.Key.ChatID.String(),
		Sender:     m.Sender,
		SenderName: m.SenderName,
		Body:       m.Body,
		Type:       m.Type,
		Status:     m.Status,
		FromMe:     m.Key.FromMe,
		Timestamp:  m.Timestamp,
	}
}

func messagesToWire(msgs []history.Message) []*wppv1.Message {
	out := make([]*wppv1.Message, len(msgs))
	for i, m := range msgs {
		out[i] = messageToWire(m)
	}
	return out
}

func chatToWire(c *history.Chat) *wppv1.Chat {
	out := &wppv1.Chat{
		ID:            c.ID.String(),
		Name:          c.Name,
		IsGroup:       c.IsGroup(),
		CreatedVia:    c.CreatedVia,
		UnreadCount:   int32(c.UnreadCount),
		LastMessageAt: c.LastMessageAt,
	}
	if meta := c.GroupMetadata(); meta != nil {
		g := &wppv1.GroupInfo{
			Subject:      meta.Subject,
			Description:  meta.Description,
			Participants: make([]wppv1.GroupParticipant, len(meta.Participants)),
		}
		if !meta.Owner.IsZero() {
			g.Owner = meta.Owner.String()
		}
		if !meta.CreatedAt.IsZero() {
			g.CreatedAtMs = meta.CreatedAt.UnixMilli()
		}
		for i, p := range meta.Participants {
			g.Participants[i] = wppv1.GroupParticipant{
				ID:           p.ID.String(),
				IsAdmin:      p.IsAdmin,
				IsSuperAdmin: p.IsSuperAdmin,
			}
		}
		out.Group = g
	}
	return out
}
