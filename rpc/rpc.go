package rpc

import (
	"context"
	"net"
	"net/rpc"

	"github.com/denred/multi-player-guess-number/game"
	"github.com/denred/multi-player-guess-number/logger"
	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/players"
)

// Server manages the RPC listener for the admin inspection service.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes read-only coordinator state over net/rpc. Methods
// follow the net/rpc signature rules: exported method, exported args,
// pointer reply, error return.
type AdminService struct {
	rooms     *game.RoomStore
	engine    *game.Engine
	directory *players.Directory
}

func NewAdminService(rooms *game.RoomStore, engine *game.Engine, directory *players.Directory) *AdminService {
	return &AdminService{
		rooms:     rooms,
		engine:    engine,
		directory: directory,
	}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.Room
}

func (s *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	rooms, err := s.rooms.ListRooms(context.Background())
	if err != nil {
		return err
	}
	reply.Rooms = rooms
	return nil
}

type GameStateArgs struct {
	RoomID string // empty for the standalone game
}

type GameStateReply struct {
	State models.GameState
}

func (s *AdminService) GetGameState(args *GameStateArgs, reply *GameStateReply) error {
	ctx := context.Background()

	var (
		state models.GameState
		err   error
	)
	if args.RoomID == "" {
		state, err = s.engine.GameState(ctx)
	} else {
		state, err = s.engine.RoomGameState(ctx, args.RoomID)
	}
	if err != nil {
		return err
	}
	reply.State = state
	return nil
}

type ListPlayersArgs struct{}

type ListPlayersReply struct {
	Players []models.Player
}

func (s *AdminService) ListPlayers(args *ListPlayersArgs, reply *ListPlayersReply) error {
	players, err := s.directory.GetAll(context.Background())
	if err != nil {
		return err
	}
	reply.Players = players
	return nil
}
