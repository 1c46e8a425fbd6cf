package api

import (
	"context"
	"strconv"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/matheus3301/wpphist/internal/wid"
	"google.golang.org/grpc"
)

// HistoryDefaults fills request fields callers leave unset.
type HistoryDefaults struct {
	SearchCount int
	ScanLimit   int
}

// HistoryService implements the HistoryService gRPC service.
type HistoryService struct {
	wppv1.UnimplementedHistoryServiceServer

	svc      *history.Service
	defaults HistoryDefaults
}

// NewHistoryService creates a history service over svc.
func NewHistoryService(svc *history.Service, defaults HistoryDefaults) *HistoryService {
	if defaults.SearchCount <= 0 {
		defaults.SearchCount = 20
	}
	if defaults.ScanLimit == 0 {
		defaults.ScanLimit = history.DefaultScanLimit
	}
	return &HistoryService{svc: svc, defaults: defaults}
}

func (s *HistoryService) FindOrCreateChat(ctx context.Context, req *wppv1.FindOrCreateChatRequest) (*wppv1.FindOrCreateChatResponse, error) {
	chat, err := s.svc.FindOrCreateChat(ctx, req.Address)
	if err != nil {
		return nil, toStatus("find or create chat", err)
	}
	return &wppv1.FindOrCreateChatResponse{Chat: chatToWire(chat)}, nil
}

func (s *HistoryService) PageMessages(ctx context.Context, req *wppv1.PageMessagesRequest) (*wppv1.PageMessagesResponse, error) {
	anchor, err := wid.ParseMsgKey(req.Anchor)
	if err != nil {
		return nil, toStatus("page messages", err)
	}
	res, err := s.svc.PageMessages(ctx, anchor, int(req.Count), history.Direction(req.Direction))
	if err != nil {
		return nil, toStatus("page messages", err)
	}
	resp := &wppv1.PageMessagesResponse{Status: int32(res.Status)}
	if res.Status == history.StatusOK {
		resp.Messages = messagesToWire(res.Messages)
	}
	return resp, nil
}

func (s *HistoryService) SearchMessages(ctx context.Context, req *wppv1.SearchMessagesRequest) (*wppv1.SearchMessagesResponse, error) {
	params := history.SearchParams{
		Term:  req.Term,
		Count: int(req.Count),
		Page:  int(req.Page),
	}
	if params.Count == 0 {
		params.Count = s.defaults.SearchCount
	}
	if req.Remote != "" {
		remote, err := wid.Resolve(req.Remote)
		if err != nil {
			return nil, toStatus("search messages", err)
		}
		params.Remote = remote
	}
	if req.Anchor != "" {
		anchor, err := wid.ParseMsgKey(req.Anchor)
		if err != nil {
			return nil, toStatus("search messages", err)
		}
		params.Anchor = &anchor
	}

	res, err := s.svc.SearchMessages(ctx, params)
	if err != nil {
		return nil, toStatus("search messages", err)
	}
	return &wppv1.SearchMessagesResponse{
		Messages: messagesToWire(res.Messages),
		EOF:      res.EOF,
		Canceled: res.Canceled,
	}, nil
}

func (s *HistoryService) scanArgs(req *wppv1.ScanMessagesRequest) (int64, int, error) {
	limit := req.Limit
	if limit == "" {
		limit = strconv.Itoa(s.defaults.ScanLimit)
	}
	return history.ParseScanArgs(req.MinRowID, limit)
}

func (s *HistoryService) ScanMessagesFromRow(ctx context.Context, req *wppv1.ScanMessagesRequest) (*wppv1.ScanMessagesResponse, error) {
	minRowID, limit, err := s.scanArgs(req)
	if err != nil {
		return nil, toStatus("scan messages", err)
	}
	msgs, err := s.svc.ScanMessagesFromRow(ctx, minRowID, limit)
	if err != nil {
		return nil, toStatus("scan messages", err)
	}
	return &wppv1.ScanMessagesResponse{Messages: messagesToWire(msgs)}, nil
}

func (s *HistoryService) StreamMessagesFromRow(req *wppv1.ScanMessagesRequest, stream grpc.ServerStreamingServer[wppv1.Message]) error {
	minRowID, limit, err := s.scanArgs(req)
	if err != nil {
		return toStatus("stream messages", err)
	}
	err = s.svc.StreamMessagesFromRow(stream.Context(), minRowID, limit, func(m history.Message) error {
		return stream.Send(messageToWire(m))
	})
	if err != nil {
		return toStatus("stream messages", err)
	}
	return nil
}
