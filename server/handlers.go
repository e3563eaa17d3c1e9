package server

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/battleship/game"
	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/network"
	"github.com/wfunc/battleship/services"
	"github.com/wfunc/battleship/session"
)

const alreadyRegisteredText = "You have been already registered"

var (
	ErrNotRegistered   = errors.New("register first")
	ErrForeignInGameID = errors.New("in-game id belongs to another player")
)

// handleFrame decodes one inbound frame and runs it under the coordinator
// mutex. Deliveries are sent once the mutex is released.
func (s *GameServer) handleFrame(ctx context.Context, sess *session.Session, frame []byte) {
	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()

	req, err := network.Decode(frame)
	if err != nil {
		s.monitor.IncProtocolErrors()
		logger.Log.Debugw("rejecting frame", "session", sess.GetID(), "error", err)
		s.replyError(sess, err)
		return
	}

	out := &outbox{}
	s.mutex.Lock()
	err = s.dispatch(ctx, sess, req, out)
	s.mutex.Unlock()

	s.flush(ctx, out)

	switch {
	case err == nil:
	case errors.Is(err, game.ErrNotYourTurn):
		logger.Log.Debugw("ignoring out-of-turn attack", "session", sess.GetID(), "player", sess.PlayerID())
	default:
		logger.Log.Infow("request rejected", "session", sess.GetID(), "type", req.MessageType(), "error", err)
		s.replyError(sess, err)
	}
}

func (s *GameServer) dispatch(ctx context.Context, sess *session.Session, req network.Request, out *outbox) error {
	switch req := req.(type) {
	case network.RegisterRequest:
		return s.handleRegister(ctx, sess, req, out)
	case network.CreateRoomRequest:
		return s.handleCreateRoom(ctx, sess, out)
	case network.JoinRoomRequest:
		return s.handleJoinRoom(ctx, sess, req, out)
	case network.SubmitFleetRequest:
		return s.handleSubmitFleet(ctx, sess, req, out)
	case network.AttackRequest:
		return s.handleAttack(ctx, sess, req.GameID, req.InGamePlayerID, req.X, req.Y, out)
	case network.RandomAttackRequest:
		cell := game.RandomCell(s.rng)
		return s.handleAttack(ctx, sess, req.GameID, req.InGamePlayerID, cell.X, cell.Y, out)
	}
	return network.ErrUnknownType
}

func (s *GameServer) handleRegister(ctx context.Context, sess *session.Session, req network.RegisterRequest, out *outbox) error {
	player, err := s.matchmaking.Register(ctx, req.Name, req.Password)
	reply := network.Registered{Name: req.Name}
	switch {
	case errors.Is(err, services.ErrAlreadyRegistered):
		reply.Error = true
		reply.ErrorText = alreadyRegisteredText
	case err != nil:
		return err
	}
	reply.Index = player.ID

	// switching names leaves the previous player without a connection
	if old := sess.PlayerID(); old != "" && old != player.ID {
		if owner, ok := s.sessionManager.ByPlayer(old); ok && owner == sess {
			if err := s.abandonRoom(ctx, old, out); err != nil {
				return err
			}
		}
	}
	s.sessionManager.Bind(sess, player.ID)
	logger.Log.Infow("player registered", "session", sess.GetID(), "player", player.ID, "name", player.Name, "existing", reply.Error)

	out.toSession(sess, network.MsgTypeRegistered, reply)
	if err := s.queueLeaderboard(ctx, out); err != nil {
		return err
	}
	return s.queueRooms(ctx, out)
}

func (s *GameServer) handleCreateRoom(ctx context.Context, sess *session.Session, out *outbox) error {
	player, err := s.player(ctx, sess)
	if err != nil {
		return err
	}
	room, created, err := s.matchmaking.CreateRoom(ctx, player)
	if err != nil {
		return err
	}
	if created {
		logger.Log.Infow("room created", "room", room.ID, "player", player.ID)
	}
	return s.queueRooms(ctx, out)
}

func (s *GameServer) handleJoinRoom(ctx context.Context, sess *session.Session, req network.JoinRoomRequest, out *outbox) error {
	player, err := s.player(ctx, sess)
	if err != nil {
		return err
	}
	count, err := s.matchmaking.JoinRoom(ctx, req.RoomID, player)
	if err != nil {
		return err
	}
	if err := s.queueRooms(ctx, out); err != nil {
		return err
	}
	if count < models.RoomCapacity {
		return nil
	}

	room, err := s.matchmaking.Room(ctx, req.RoomID)
	if err != nil {
		return err
	}
	// a repeated join of a full room must not start a second game
	if _, err := s.engine.ActiveGameForRoom(ctx, room.ID); err == nil {
		return nil
	}

	g, err := s.engine.StartGame(ctx, room)
	if err != nil {
		return err
	}
	logger.Log.Infow("game created", "game", g.ID, "room", room.ID)
	for _, p := range g.Players {
		out.toPlayer(p.PlayerID, network.MsgTypeGameCreated, network.GameCreated{IDGame: g.ID, IDPlayer: p.InGameID})
	}
	return nil
}

func (s *GameServer) handleSubmitFleet(ctx context.Context, sess *session.Session, req network.SubmitFleetRequest, out *outbox) error {
	if _, err := s.ownGame(ctx, sess, req.GameID, req.InGamePlayerID); err != nil {
		return err
	}
	if err := s.engine.SubmitFleet(ctx, req.GameID, req.InGamePlayerID, req.Ships); err != nil {
		return err
	}
	ready, err := s.engine.BothFleetsReady(ctx, req.GameID)
	if err != nil || !ready {
		return err
	}

	g, err := s.engine.Game(ctx, req.GameID)
	if err != nil {
		return err
	}
	for _, p := range g.Players {
		out.toPlayer(p.PlayerID, network.MsgTypeFleetsAccepted, network.FleetsAccepted{
			Ships:              p.Ships,
			CurrentPlayerIndex: p.InGameID,
		})
	}
	s.queueTurn(g, out)
	return nil
}

func (s *GameServer) handleAttack(ctx context.Context, sess *session.Session, gameID, attackerID string, x, y int, out *outbox) error {
	if _, err := s.ownGame(ctx, sess, gameID, attackerID); err != nil {
		return err
	}
	result, err := s.engine.Attack(ctx, gameID, attackerID, x, y)
	if err != nil {
		return err
	}
	s.monitor.ObserveAttack(string(result))

	g, err := s.engine.Game(ctx, gameID)
	if err != nil {
		return err
	}
	for _, p := range g.Players {
		out.toPlayer(p.PlayerID, network.MsgTypeAttackResult, network.AttackResult{
			Position:      models.Cell{X: x, Y: y},
			CurrentPlayer: attackerID,
			Status:        result,
		})
	}

	over, err := s.engine.IsGameOver(ctx, gameID)
	if err != nil {
		return err
	}
	if over {
		if err := s.finishGame(ctx, gameID, out); err != nil {
			return err
		}
	}

	if err := s.engine.ChangeTurn(ctx, gameID); err != nil {
		return err
	}
	if !over {
		if g, err = s.engine.Game(ctx, gameID); err != nil {
			return err
		}
		s.queueTurn(g, out)
	}
	return nil
}

// finishGame announces a fleet-destroyed win to both players, credits the
// winner and closes the room.
func (s *GameServer) finishGame(ctx context.Context, gameID string, out *outbox) error {
	g, err := s.engine.Game(ctx, gameID)
	if err != nil {
		return err
	}
	for _, p := range g.Players {
		out.toPlayer(p.PlayerID, network.MsgTypeGameFinished, network.GameFinished{WinPlayer: g.Winner})
	}

	winner, _ := g.Player(g.Winner)
	if err := s.engine.AddWin(ctx, winner.PlayerID); err != nil {
		return err
	}
	if err := s.queueLeaderboard(ctx, out); err != nil {
		return err
	}
	if err := s.matchmaking.DeleteRoom(ctx, g.RoomID); err != nil {
		return err
	}
	if err := s.queueRooms(ctx, out); err != nil {
		return err
	}

	logger.Log.Infow("game finished", "game", g.ID, "winner", winner.PlayerID)
	s.monitor.ObserveGameFinished(string(models.ReasonFleetDestroyed))
	out.archive(gameRecord(g, models.ReasonFleetDestroyed))
	return nil
}

// disconnect forgets the session. If it was the live connection of a player
// sitting in a room, the room is closed and a running game is forfeited to
// the other member.
func (s *GameServer) disconnect(ctx context.Context, sess *session.Session) {
	out := &outbox{}

	s.mutex.Lock()
	playerID := sess.PlayerID()
	live, _ := s.sessionManager.ByPlayer(playerID)
	s.sessionManager.Remove(sess.GetID())
	var err error
	if playerID != "" && live == sess {
		err = s.abandonRoom(ctx, playerID, out)
	}
	s.mutex.Unlock()

	s.flush(ctx, out)
	if err != nil {
		logger.Log.Warnw("disconnect cleanup failed", "session", sess.GetID(), "player", playerID, "error", err)
	}
}

func (s *GameServer) abandonRoom(ctx context.Context, playerID string, out *outbox) error {
	room, err := s.matchmaking.RoomOf(ctx, playerID)
	if errors.Is(err, services.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if len(room.Members) == models.RoomCapacity {
		g, err := s.engine.ActiveGameForRoom(ctx, room.ID)
		switch {
		case err == nil:
			if err := s.forfeit(ctx, g, playerID, out); err != nil {
				return err
			}
		case !errors.Is(err, game.ErrGameNotFound):
			return err
		}
	}

	if err := s.matchmaking.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	logger.Log.Infow("room closed on disconnect", "room", room.ID, "player", playerID)
	return s.queueRooms(ctx, out)
}

func (s *GameServer) forfeit(ctx context.Context, g *models.Game, leaverID string, out *outbox) error {
	leaver, ok := g.ByPlayerID(leaverID)
	if !ok {
		return game.ErrUnknownPlayer
	}
	winner, _ := g.Opponent(leaver.InGameID)

	g, err := s.engine.Forfeit(ctx, g.ID, winner.InGameID)
	if err != nil {
		return err
	}
	out.toPlayer(winner.PlayerID, network.MsgTypeGameFinished, network.GameFinished{WinPlayer: winner.InGameID})
	if err := s.engine.AddWin(ctx, winner.PlayerID); err != nil {
		return err
	}
	if err := s.queueLeaderboard(ctx, out); err != nil {
		return err
	}

	logger.Log.Infow("game forfeited", "game", g.ID, "winner", winner.PlayerID, "leaver", leaverID)
	s.monitor.ObserveGameFinished(string(models.ReasonForfeit))
	out.archive(gameRecord(g, models.ReasonForfeit))
	return nil
}

// player resolves the registered player behind the session.
func (s *GameServer) player(ctx context.Context, sess *session.Session) (*models.Player, error) {
	id := sess.PlayerID()
	if id == "" {
		return nil, ErrNotRegistered
	}
	return s.matchmaking.Player(ctx, id)
}

// ownGame checks that inGameID in gameID belongs to the session's player.
func (s *GameServer) ownGame(ctx context.Context, sess *session.Session, gameID, inGameID string) (*models.Game, error) {
	player, err := s.player(ctx, sess)
	if err != nil {
		return nil, err
	}
	g, err := s.engine.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	gp, ok := g.Player(inGameID)
	if !ok {
		return nil, game.ErrUnknownPlayer
	}
	if gp.PlayerID != player.ID {
		return nil, ErrForeignInGameID
	}
	return g, nil
}

func (s *GameServer) queueRooms(ctx context.Context, out *outbox) error {
	rooms, err := s.matchmaking.OpenRooms(ctx)
	if err != nil {
		return err
	}
	payload := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		payload = append(payload, *r)
	}
	out.toAll(network.MsgTypeRoomsUpdated, payload)
	return nil
}

func (s *GameServer) queueLeaderboard(ctx context.Context, out *outbox) error {
	entries, err := s.matchmaking.Leaderboard(ctx)
	if err != nil {
		return err
	}
	out.toAll(network.MsgTypeLeaderboardUpdated, entries)
	return nil
}

func (s *GameServer) queueTurn(g *models.Game, out *outbox) {
	for _, p := range g.Players {
		out.toPlayer(p.PlayerID, network.MsgTypeTurn, network.Turn{CurrentPlayer: g.CurrentTurn})
	}
}

func (s *GameServer) replyError(sess *session.Session, err error) {
	env, encErr := network.NewEnvelope(network.MsgTypeError, network.Error{ErrorText: err.Error()})
	if encErr != nil {
		return
	}
	if sendErr := sess.Send(env); sendErr != nil {
		logger.Log.Debugw("error reply failed", "session", sess.GetID(), "error", sendErr)
	}
}

func gameRecord(g *models.Game, reason models.FinishReason) models.GameRecord {
	rec := models.GameRecord{
		GameID:     g.ID,
		RoomID:     g.RoomID,
		Reason:     reason,
		FinishedAt: time.Now().UTC(),
	}
	if winner, ok := g.Player(g.Winner); ok {
		rec.WinnerID = winner.PlayerID
	}
	if loser, ok := g.Opponent(g.Winner); ok {
		rec.LoserID = loser.PlayerID
	}
	return rec
}
