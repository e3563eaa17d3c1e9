package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/battleship/broadcast"
	"github.com/wfunc/battleship/config"
	"github.com/wfunc/battleship/game"
	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/monitor"
	"github.com/wfunc/battleship/network"
	"github.com/wfunc/battleship/persistence"
	battleship_rpc "github.com/wfunc/battleship/rpc"
	"github.com/wfunc/battleship/services"
	"github.com/wfunc/battleship/session"
	"github.com/wfunc/battleship/store"
	"github.com/wfunc/battleship/timer"
)

const shutdownTimeout = 5 * time.Second

type GameServer struct {
	cfg            config.ServerConfig
	sampleInterval time.Duration
	upgrader       websocket.Upgrader
	store          *store.Store
	matchmaking    *services.Matchmaking
	playerService  *services.PlayerService
	engine         *game.Engine
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rng            game.Random

	// mutex serializes every request's reads and writes of the store
	mutex sync.Mutex
}

func NewGameServer(cfg *config.Config, st *store.Store, archive persistence.Archive, mon *monitor.Monitor) *GameServer {
	if archive == nil {
		archive = persistence.NewMemoryArchive()
	}
	matchmaking := services.NewMatchmaking(st)

	s := &GameServer{
		cfg:            cfg.Server,
		sampleInterval: cfg.Monitor.SampleInterval,
		store:          st,
		matchmaking:    matchmaking,
		playerService:  services.NewPlayerService(matchmaking, archive),
		engine:         game.NewEngine(st),
		sessionManager: session.NewManager(),
		monitor:        mon,
		timers:         timer.NewManager(0),
		rng:            game.DefaultRandom,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)
	return s
}

// Router exposes the websocket endpoint and the operational surface.
func (s *GameServer) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.Handle("/metrics", s.monitor.Handler()).Methods(http.MethodGet)
	r.Handle("/debug/vars", expvar.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return r
}

// Run serves HTTP, the optional admin RPC and the metrics sampler until ctx
// is done or one of them fails.
func (s *GameServer) Run(ctx context.Context) error {
	// 初始化RPC服务器
	var rpcServer *battleship_rpc.Server
	if s.cfg.RPCAddress != "" {
		admin := battleship_rpc.NewAdminService(s.matchmaking, s.playerService)
		var err error
		if rpcServer, err = battleship_rpc.NewServer(s.cfg.RPCAddress, admin); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{Addr: s.cfg.HTTPAddress, Handler: s.Router()}
	g.Go(func() error {
		logger.Log.Infof("Game server listening on %s", s.cfg.HTTPAddress)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if rpcServer != nil {
		g.Go(func() error { return rpcServer.Serve(ctx) })
	}

	if s.sampleInterval > 0 {
		id := s.timers.Add(0, s.sampleInterval, func() { s.sample(context.Background()) })
		defer s.timers.Remove(id)
	}
	g.Go(func() error { return s.timers.Run(ctx) })

	err := g.Wait()
	return multierr.Append(err, s.closeSessions())
}

// closeSessions drops every live connection; their read loops then run the
// normal disconnect path.
func (s *GameServer) closeSessions() error {
	var err error
	for _, sess := range s.sessionManager.All() {
		err = multierr.Append(err, sess.Close())
	}
	return err
}

// sample refreshes the store-derived gauges.
func (s *GameServer) sample(ctx context.Context) {
	rooms, err := s.store.Rooms.Count(ctx)
	if err != nil {
		logger.Log.Warnw("sampling rooms failed", "error", err)
		return
	}
	games, err := s.store.Games.FindAll(ctx, func(g *models.Game) bool { return !g.Finished })
	if err != nil {
		logger.Log.Warnw("sampling games failed", "error", err)
		return
	}
	s.monitor.SetActiveRooms(rooms)
	s.monitor.SetActiveGames(len(games))
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":           "ok",
		"sessions":         s.sessionManager.Count(),
		"max_idle_seconds": s.sessionManager.MaxIdle(time.Now()).Seconds(),
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.serveConnection(context.Background(), network.NewWSConnection(conn, s.cfg.WriteTimeout))
}

// serveConnection reads frames in order until the peer goes away, then runs
// the disconnect flow.
func (s *GameServer) serveConnection(ctx context.Context, conn network.Connection) {
	sess := session.NewSession(uuid.NewString(), conn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	done := make(chan struct{})
	defer func() {
		close(done)
		logger.Log.Infof("Connection closed from %s, session ID: %s, open for %s",
			conn.RemoteAddr(), sess.GetID(), time.Since(sess.CreatedAt).Round(time.Millisecond))
		s.disconnect(ctx, sess)
		s.monitor.DecOnlinePlayers()
		conn.Close()
	}()

	if s.cfg.PongWait > 0 {
		conn.SetHeartbeat(s.cfg.PongWait)
		go s.keepAlive(conn, s.cfg.PongWait*9/10, done)
	}

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debugw("read failed", "session", sess.GetID(), "error", err)
			}
			return
		}
		sess.Touch()
		s.handleFrame(ctx, sess, frame)
	}
}

func (s *GameServer) keepAlive(conn network.Connection, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
