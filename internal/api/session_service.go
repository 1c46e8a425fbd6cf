package api

import (
	"context"
	"time"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/rowstore"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/matheus3301/wpphist/internal/status"
	"github.com/matheus3301/wpphist/internal/store"
	wsync "github.com/matheus3301/wpphist/internal/sync"
	"github.com/matheus3301/wpphist/internal/wa"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// SessionService implements the SessionService gRPC service.
type SessionService struct {
	wppv1.UnimplementedSessionServiceServer

	sessionName string
	startedAt   time.Time
	machine     *status.Machine
	adapter     *wa.Adapter
	bus         *bus.Bus
	db          *store.DB
	rows        *rowstore.Store
	indexer     *wsync.Indexer
	logger      *zap.Logger
}

// SessionDeps groups what the session service reports on. Any field but
// Machine may be nil.
type SessionDeps struct {
	Machine *status.Machine
	Adapter *wa.Adapter
	Bus     *bus.Bus
	DB      *store.DB
	Rows    *rowstore.Store
	Indexer *wsync.Indexer
}

// NewSessionService creates a new session service.
func NewSessionService(sessionName string, deps SessionDeps, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessionName: sessionName,
		startedAt:   time.Now(),
		machine:     deps.Machine,
		adapter:     deps.Adapter,
		bus:         deps.Bus,
		db:          deps.DB,
		rows:        deps.Rows,
		indexer:     deps.Indexer,
		logger:      logger,
	}
}

func (s *SessionService) GetSessionStatus(ctx context.Context, _ *wppv1.GetSessionStatusRequest) (*wppv1.GetSessionStatusResponse, error) {
	current, since := s.machine.Snapshot()

	resp := &wppv1.GetSessionStatusResponse{
		Session:       s.sessionName,
		Status:        string(current),
		Synced:        current.Serving(),
		StatusSinceMs: since.UnixMilli(),
		UptimeMs:      time.Since(s.startedAt).Milliseconds(),
		DroppedEvents: s.bus.Dropped(),
	}

	if s.adapter != nil {
		resp.PhoneNumber = s.adapter.PhoneNumber()
	}

	// Counts are best effort; a failing query leaves them zero.
	if s.db != nil {
		if n, err := s.db.ChatCount(ctx); err == nil {
			resp.ChatCount = n
		} else {
			s.logger.Warn("chat count failed", zap.Error(err))
		}
		if n, err := s.db.MessageCount(ctx); err == nil {
			resp.MessageCount = n
		} else {
			s.logger.Warn("message count failed", zap.Error(err))
		}
	}
	if s.rows != nil {
		resp.LastRowID = s.rows.LastRowID()
	}
	if s.indexer != nil {
		if id, err := s.indexer.Checkpoint(ctx); err == nil {
			resp.IndexedID = id
		}
	}

	return resp, nil
}

func (s *SessionService) StartAuth(_ *wppv1.StartAuthRequest, stream grpc.ServerStreamingServer[wppv1.AuthEvent]) error {
	if s.adapter == nil {
		return grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}

	authCh, err := s.adapter.StartQRAuth(stream.Context())
	if err != nil {
		return grpcstatus.Errorf(codes.FailedPrecondition, "start auth: %v", err)
	}

	for evt := range authCh {
		if err := stream.Send(&wppv1.AuthEvent{
			EventType: string(evt.Type),
			QrCode:    evt.QRCode,
			Message:   evt.Message,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (s *SessionService) Logout(ctx context.Context, _ *wppv1.LogoutRequest) (*wppv1.LogoutResponse, error) {
	if s.adapter == nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "adapter not initialized")
	}
	if err := s.adapter.Logout(ctx); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "logout: %v", err)
	}
	return &wppv1.LogoutResponse{Success: true, Message: "logged out"}, nil
}
