package server

import (
	"net/http"
	"net/rpc"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/denred/multi-player-guess-number/bot"
	"github.com/denred/multi-player-guess-number/broadcast"
	"github.com/denred/multi-player-guess-number/config"
	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/monitor"
	"github.com/denred/multi-player-guess-number/network"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/players"
	gamerpc "github.com/denred/multi-player-guess-number/rpc"
	"github.com/denred/multi-player-guess-number/session"
)

// GameServer is the protocol-facing coordinator: it owns the session
// table, translates inbound commands into engine/store calls and fans the
// results out to subscribers.
type GameServer struct {
	cfg          *config.Config
	upgrader     websocket.Upgrader
	sessions     *session.Manager
	broadcaster  broadcast.Broadcaster
	directory    *players.Directory
	rooms        *game.RoomStore
	engine       *game.Engine
	bots         *bot.Controller
	store        persistence.Store
	recorder     persistence.Recorder
	monitor      *monitor.Monitor
	rpcServer    *gamerpc.Server
	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, store persistence.Store, recorder persistence.Recorder) *GameServer {
	sessions := session.NewManager()
	directory := players.NewDirectory(store)
	rooms := game.NewRoomStore(store, directory)
	engine := game.NewEngine(store, rooms, cfg.Game)
	bots := bot.NewController(directory, rooms, engine, cfg.Bot)

	s := &GameServer{
		cfg:          cfg,
		sessions:     sessions,
		broadcaster:  broadcast.NewSessionBroadcaster(sessions),
		directory:    directory,
		rooms:        rooms,
		engine:       engine,
		bots:         bots,
		store:        store,
		recorder:     recorder,
		monitor:      monitor.NewMonitor("guessnumber"),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	// Accepted bot guesses re-enter the same fan-out path as human ones.
	bots.OnResult(s.handleBotResult)

	rpcServer, err := gamerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(gamerpc.NewAdminService(rooms, engine, directory))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	router := chi.NewRouter()
	s.setupRoutes(router)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, router)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessions.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed, session ID: %s", sess.GetID())
		s.handleDisconnect(sess)
		conn.Close()
	}()

	s.handleConnect(sess)

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			ev, err := conn.ReadEvent()
			if err != nil {
				return
			}
			s.dispatch(sess, ev)
		}
	}
}

func (s *GameServer) dispatch(sess *session.Session, ev *network.Event) {
	start := time.Now()
	s.monitor.IncCommandsReceived()

	var err error
	switch ev.Event {
	case network.EventCreateRoom:
		err = s.handleCreateRoom(sess, ev.Data)
	case network.EventJoinRoom:
		err = s.handleJoinRoom(sess, ev.Data)
	case network.EventSetReady:
		err = s.handleSetReady(sess, ev.Data)
	case network.EventGuessSubmit:
		err = s.handleGuessSubmit(sess, ev.Data)
	case network.EventGetRooms:
		err = s.handleGetRooms(sess)
	case network.EventAddBot:
		err = s.handleAddBot(sess, ev.Data)
	case network.EventRemoveBot:
		err = s.handleRemoveBot(sess, ev.Data)
	case network.EventLeaveRoom:
		err = s.handleLeaveRoom(sess, ev.Data)
	default:
		logger.Log.Infof("Unknown event %q from session %s", ev.Event, sess.GetID())
	}

	if err != nil {
		s.reportError(sess, err)
	}
	s.monitor.ObserveCommandLatency(time.Since(start))
}
