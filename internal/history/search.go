package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type searchRun struct {
	id     uuid.UUID
	cancel context.CancelCauseFunc
}

// Searcher runs full-text searches. A new search in the same scope (one chat,
// or all chats) cancels the one still running there.
type Searcher struct {
	substrate MessageSearcher
	timeout   time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]*searchRun
}

// NewSearcher creates a searcher over the given substrate.
func NewSearcher(substrate MessageSearcher, timeout time.Duration, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		substrate: substrate,
		timeout:   timeout,
		logger:    logger,
		inflight:  make(map[string]*searchRun),
	}
}

// Search returns one page of matches for params. Cancellation, whether by the
// caller or by a newer search in the same scope, is reported through the
// Canceled flag rather than as an error.
func (s *Searcher) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if strings.TrimSpace(params.Term) == "" {
		return nil, invalidArg("searchTerm", "must not be empty")
	}
	if params.Count <= 0 {
		return nil, invalidArg("count", "must be a positive integer, got %d", params.Count)
	}
	if params.Page < 0 {
		return nil, invalidArg("page", "must not be negative, got %d", params.Page)
	}
	if params.Anchor != nil && (params.Anchor.ChatID.IsZero() || params.Anchor.ID == "") {
		return nil, invalidArg("anchor", "chat id and message id are required")
	}

	ctx, run := s.begin(ctx, params.scope())
	defer s.end(params.scope(), run)

	res, err := callBounded(ctx, s.timeout, func(ctx context.Context) (*SearchResult, error) {
		return s.substrate.MsgFindSearch(ctx, params)
	})
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, err
		}
		if ctx.Err() != nil {
			return s.canceled(ctx, run, nil), nil
		}
		return nil, err
	}
	if res == nil {
		res = &SearchResult{EOF: true}
	}
	if res.Messages == nil {
		res.Messages = []Message{}
	}
	if ctx.Err() != nil && !res.Canceled {
		return s.canceled(ctx, run, res.Messages), nil
	}
	return res, nil
}

func (s *Searcher) canceled(ctx context.Context, run *searchRun, partial []Message) *SearchResult {
	s.logger.Debug("search canceled",
		zap.Stringer("run", run.id),
		zap.NamedError("cause", context.Cause(ctx)),
	)
	if partial == nil {
		partial = []Message{}
	}
	return &SearchResult{Messages: partial, Canceled: true}
}

func (s *Searcher) begin(ctx context.Context, scope string) (context.Context, *searchRun) {
	ctx, cancel := context.WithCancelCause(ctx)
	run := &searchRun{id: uuid.New(), cancel: cancel}

	s.mu.Lock()
	prev := s.inflight[scope]
	s.inflight[scope] = run
	s.mu.Unlock()

	if prev != nil {
		s.logger.Debug("superseding search", zap.String("scope", scope), zap.Stringer("run", prev.id))
		prev.cancel(ErrSuperseded)
	}
	return ctx, run
}

func (s *Searcher) end(scope string, run *searchRun) {
	s.mu.Lock()
	if s.inflight[scope] == run {
		delete(s.inflight, scope)
	}
	s.mu.Unlock()
	run.cancel(context.Canceled)
}
