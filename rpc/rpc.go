package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/services"
)

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

// NewServer listens on addr and exposes admin under the "Admin" name.
func NewServer(addr string, admin *AdminService) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("Admin", admin); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: listener, rpc: srv}, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is done or the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logger.Log.Infof("RPC server listening on %s", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return nil
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// AdminService exposes read-only server state.
type AdminService struct {
	matchmaking   *services.Matchmaking
	playerService *services.PlayerService
}

func NewAdminService(m *services.Matchmaking, ps *services.PlayerService) *AdminService {
	return &AdminService{matchmaking: m, playerService: ps}
}

// Empty is the argument of methods that take none.
type Empty struct{}

type LeaderboardReply struct {
	Entries []models.LeaderboardEntry
}

type OpenRoomsReply struct {
	Rooms []models.Room
}

type PlayerStatsArgs struct {
	PlayerID string
}

// net/rpc signature: exported method, pointer reply, error return.
func (a *AdminService) Leaderboard(_ *Empty, reply *LeaderboardReply) error {
	entries, err := a.matchmaking.Leaderboard(context.Background())
	if err != nil {
		return err
	}
	reply.Entries = entries
	return nil
}

func (a *AdminService) OpenRooms(_ *Empty, reply *OpenRoomsReply) error {
	rooms, err := a.matchmaking.OpenRooms(context.Background())
	if err != nil {
		return err
	}
	reply.Rooms = make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		reply.Rooms = append(reply.Rooms, *r)
	}
	return nil
}

func (a *AdminService) PlayerStats(args *PlayerStatsArgs, reply *models.PlayerStats) error {
	stats, err := a.playerService.Stats(context.Background(), args.PlayerID)
	if err != nil {
		return err
	}
	*reply = stats
	return nil
}
