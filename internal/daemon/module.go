package daemon

import (
	"context"

	"github.com/matheus3301/wpphist/internal/api"
	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/config"
	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/lock"
	"github.com/matheus3301/wpphist/internal/logging"
	"github.com/matheus3301/wpphist/internal/metrics"
	"github.com/matheus3301/wpphist/internal/model"
	"github.com/matheus3301/wpphist/internal/rowstore"
	"github.com/matheus3301/wpphist/internal/session"
	"github.com/matheus3301/wpphist/internal/status"
	"github.com/matheus3301/wpphist/internal/store"
	intsync "github.com/matheus3301/wpphist/internal/sync"
	"github.com/matheus3301/wpphist/internal/wa"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	ConfigPath  string // optional override; empty = ~/.wpp/config.toml
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRowStore,
			provideAdapter,
			provideChatStore,
			provideGroupStore,
			provideRegistry,
			provideMetrics,
			provideHistory,
			provideSyncEngine,
			provideIndexer,
			provideSessionService,
			provideHistoryService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	return config.LoadOrDefault(path)
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.Log.Level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRowStore(p Params, _ *lock.Lock, logger *zap.Logger) (*rowstore.Store, error) {
	return rowstore.Open(session.RowStoreDir(p.SessionName), rowstore.Options{}, logger.Named("rows"))
}

func provideAdapter(p Params, b *bus.Bus, logger *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), p.SessionName, b, logger)
}

func provideChatStore(db *store.DB, logger *zap.Logger) (*model.ChatStore, error) {
	chats := model.NewChatStore(db, logger.Named("chats"))
	if err := chats.Load(context.Background()); err != nil {
		return nil, err
	}
	return chats, nil
}

func provideGroupStore(db *store.DB, adapter *wa.Adapter, cfg *config.Config, logger *zap.Logger) *model.GroupStore {
	return model.NewGroupStore(db, adapter, cfg.History.GroupMetadataTTL.Duration, logger.Named("groups"))
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry, b *bus.Bus, rows *rowstore.Store) *metrics.HistoryMetrics {
	m := metrics.NewHistoryMetrics(reg)
	metrics.RegisterGauge(reg, "wpphist_row_store_last_row_id", "Highest row id in the durable row store",
		func() float64 { return float64(rows.LastRowID()) })
	metrics.RegisterGauge(reg, "wpphist_bus_dropped_events", "Events dropped on full subscriber buffers",
		func() float64 { return float64(b.Dropped()) })
	return m
}

func provideHistory(
	chats *model.ChatStore,
	groups *model.GroupStore,
	db *store.DB,
	rows *rowstore.Store,
	cfg *config.Config,
	m *metrics.HistoryMetrics,
	logger *zap.Logger,
) *history.Service {
	chatLog := store.NewChatLog(db)
	return history.NewService(history.Deps{
		Creator:  chats,
		Cache:    chats,
		Groups:   groups,
		Log:      chatLog,
		Searcher: chatLog,
		Rows:     rows,
	}, cfg.History.SubstrateTimeout.Duration, m, logger.Named("history"))
}

func provideSyncEngine(db *store.DB, b *bus.Bus, chats *model.ChatStore, adapter *wa.Adapter, logger *zap.Logger) *intsync.Engine {
	e := intsync.NewEngine(db, b, chats, logger.Named("sync"))
	e.SetContactSource(adapter)
	return e
}

func provideIndexer(db *store.DB, rows *rowstore.Store, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *intsync.Indexer {
	return intsync.NewIndexer(db, rows, b, cfg.History.IndexBatch, logger.Named("indexer"))
}

func provideSessionService(
	p Params,
	m *status.Machine,
	adapter *wa.Adapter,
	b *bus.Bus,
	db *store.DB,
	rows *rowstore.Store,
	indexer *intsync.Indexer,
	logger *zap.Logger,
) *api.SessionService {
	return api.NewSessionService(p.SessionName, api.SessionDeps{
		Machine: m,
		Adapter: adapter,
		Bus:     b,
		DB:      db,
		Rows:    rows,
		Indexer: indexer,
	}, logger)
}

func provideHistoryService(svc *history.Service, cfg *config.Config) *api.HistoryService {
	return api.NewHistoryService(svc, api.HistoryDefaults{
		SearchCount: cfg.History.SearchCount,
		ScanLimit:   cfg.History.ScanLimit,
	})
}

// countSyncEvents feeds ingest and index progress into the counters.
func countSyncEvents(ctx context.Context, b *bus.Bus, m *metrics.HistoryMetrics) {
	ch, unsub := b.Subscribe("sync.", 64)
	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				switch p := evt.Payload.(type) {
				case intsync.IngestStats:
					m.MessagesIngested.Add(float64(p.Messages))
				case intsync.IndexStats:
					m.RowsIndexed.Add(float64(p.Rows))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

type lifecycleParams struct {
	fx.In

	Server   *Server
	Lock     *lock.Lock
	DB       *store.DB
	Rows     *rowstore.Store
	Adapter  *wa.Adapter
	Engine   *intsync.Engine
	Indexer  *intsync.Indexer
	Machine  *status.Machine
	Bus      *bus.Bus
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.HistoryMetrics
	Logger   *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, lp lifecycleParams) {
	logger := lp.Logger
	ctx, cancel := context.WithCancel(context.Background())
	var metricsSrv *metrics.Server

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			countSyncEvents(ctx, lp.Bus, lp.Metrics)

			// Indexer first so the engine's ingest events find it subscribed.
			lp.Indexer.Start(ctx)
			lp.Engine.Start(ctx)

			handler := wa.NewEventHandler(lp.Bus, lp.Machine, lp.Adapter, logger.Named("wa"))
			lp.Adapter.RegisterEventHandler(handler.Handle)

			if addr := lp.Config.Metrics.Addr; addr != "" {
				srv, err := metrics.Listen(addr, lp.Registry, logger.Named("metrics"))
				if err != nil {
					return err
				}
				metricsSrv = srv
				metricsSrv.Start()
			}

			go func() {
				if err := lp.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			// Transition state based on auth status.
			if lp.Adapter.IsLoggedIn() {
				_ = lp.Machine.Transition(status.Connecting)
				go func() {
					if err := lp.Adapter.Connect(); err != nil {
						logger.Error("auto-connect failed", zap.Error(err))
						_ = lp.Machine.Transition(status.Error)
					}
				}()
			} else {
				logger.Info("no credentials found, auth required")
				_ = lp.Machine.Transition(status.AuthRequired)
			}

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			lp.Server.Stop(stopCtx)
			if err := lp.Adapter.Close(); err != nil {
				logger.Warn("error closing device store", zap.Error(err))
			}
			if metricsSrv != nil {
				if err := metricsSrv.Stop(stopCtx); err != nil {
					logger.Warn("error stopping metrics server", zap.Error(err))
				}
			}
			lp.Engine.Stop()
			lp.Indexer.Stop()
			cancel()
			if err := lp.Rows.Close(); err != nil {
				logger.Warn("error closing row store", zap.Error(err))
			}
			if err := lp.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lp.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
