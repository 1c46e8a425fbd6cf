package history

import (
	"context"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
	"go.uber.org/zap"
)

// Operation names reported to the Observer.
const (
	OpFindOrCreateChat = "find_or_create_chat"
	OpPageMessages     = "page_messages"
	OpSearchMessages   = "search_messages"
	OpScanMessages     = "scan_messages"
	OpStreamMessages   = "stream_messages"
)

// Deps groups the substrates the Service is built on.
type Deps struct {
	Addresses AddressResolver
	Creator   ChatCreator
	Cache     ChatCache
	Groups    GroupMetadataFinder
	Log       MessageLog
	Searcher  MessageSearcher
	Rows      RowSource
}

// Service is the public call surface over the four history components.
type Service struct {
	resolver *ChatResolver
	pager    *Pager
	searcher *Searcher
	cursor   *RowCursor
	observer Observer
	logger   *zap.Logger
}

// NewService wires the components. timeout bounds each substrate call; zero
// disables the bound. A nil observer discards observations.
func NewService(deps Deps, timeout time.Duration, observer Observer, logger *zap.Logger) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver: NewChatResolver(deps.Addresses, deps.Creator, deps.Cache, deps.Groups, timeout, logger),
		pager:    NewPager(deps.Log, timeout),
		searcher: NewSearcher(deps.Searcher, timeout, logger),
		cursor:   NewRowCursor(deps.Rows, timeout),
		observer: observer,
		logger:   logger,
	}
}

func (s *Service) observe(op string, start time.Time, outcome Outcome, err error) {
	elapsed := time.Since(start)
	s.observer.Observe(op, outcome, elapsed)
	if err != nil {
		s.logger.Debug(op+" failed",
			zap.String("outcome", outcome.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
}

// FindOrCreateChat resolves address to a live chat entity.
func (s *Service) FindOrCreateChat(ctx context.Context, address string) (*Chat, error) {
	start := time.Now()
	chat, err := s.resolver.Resolve(ctx, address)
	s.observe(OpFindOrCreateChat, start, Classify(err), err)
	return chat, err
}

// PageMessages returns up to count messages on the dir side of anchor.
func (s *Service) PageMessages(ctx context.Context, anchor wid.MsgKey, count int, dir Direction) (*PageResult, error) {
	start := time.Now()
	res, err := s.pager.Page(ctx, anchor, count, dir)
	outcome := Classify(err)
	if err == nil {
		outcome = res.Outcome()
	}
	s.observe(OpPageMessages, start, outcome, err)
	return res, err
}

// SearchMessages runs one page of a full-text search.
func (s *Service) SearchMessages(ctx context.Context, params SearchParams) (*SearchResult, error) {
	start := time.Now()
	res, err := s.searcher.Search(ctx, params)
	outcome := Classify(err)
	if err == nil {
		outcome = res.Outcome()
	}
	s.observe(OpSearchMessages, start, outcome, err)
	return res, err
}

// ScanMessagesFromRow returns records with rowId strictly greater than minRowID.
func (s *Service) ScanMessagesFromRow(ctx context.Context, minRowID int64, limit int) ([]Message, error) {
	start := time.Now()
	msgs, err := s.cursor.Scan(ctx, minRowID, limit)
	s.observe(OpScanMessages, start, Classify(err), err)
	return msgs, err
}

// StreamMessagesFromRow is ScanMessagesFromRow delivering records one at a time.
func (s *Service) StreamMessagesFromRow(ctx context.Context, minRowID int64, limit int, fn func(Message) error) error {
	start := time.Now()
	err := s.cursor.ScanEach(ctx, minRowID, limit, fn)
	s.observe(OpStreamMessages, start, Classify(err), err)
	return err
}
