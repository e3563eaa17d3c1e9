// services/matchmaking.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/store"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyPlaying    = errors.New("player is already in a full room")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
)

// Matchmaking registers players and pairs them up in rooms.
type Matchmaking struct {
	store *store.Store
	newID func() string
}

func NewMatchmaking(s *store.Store) *Matchmaking {
	return &Matchmaking{store: s, newID: uuid.NewString}
}

// Register creates a player. When the name and password are already taken
// the existing player is returned together with ErrAlreadyRegistered.
func (m *Matchmaking) Register(ctx context.Context, name, password string) (*models.Player, error) {
	existing, err := m.store.Players.FindAll(ctx, func(p *models.Player) bool {
		return p.Name == name && p.Password == password
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], ErrAlreadyRegistered
	}

	player := &models.Player{
		ID:       m.newID(),
		Name:     name,
		Password: password,
	}
	if err := m.store.Players.Put(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Player looks a player up by durable id.
func (m *Matchmaking) Player(ctx context.Context, id string) (*models.Player, error) {
	p, err := m.store.Players.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return p, err
}

// RoomOf returns the room the player is in, or ErrRoomNotFound.
func (m *Matchmaking) RoomOf(ctx context.Context, playerID string) (*models.Room, error) {
	rooms, err := m.store.Rooms.FindAll(ctx, func(r *models.Room) bool {
		return r.HasMember(playerID)
	})
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrRoomNotFound
	}
	return rooms[0], nil
}

// CreateRoom opens a room holding only player. It does nothing if the player
// is already in a room and reports created=false with that room.
func (m *Matchmaking) CreateRoom(ctx context.Context, player *models.Player) (room *models.Room, created bool, err error) {
	room, err = m.RoomOf(ctx, player.ID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return nil, false, err
	}

	room = &models.Room{
		ID:      m.newID(),
		Members: []models.RoomMember{{PlayerID: player.ID, Name: player.Name}},
	}
	if err := m.store.Rooms.Put(ctx, room); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

// JoinRoom adds player to the room and returns the resulting member count.
// Joining a room one is already in is a no-op. A room the player was waiting
// in alone is closed, so a player is never in two rooms; a player whose room
// is already full cannot join another.
func (m *Matchmaking) JoinRoom(ctx context.Context, roomID string, player *models.Player) (int, error) {
	room, err := m.Room(ctx, roomID)
	if err != nil {
		return 0, err
	}

	if room.HasMember(player.ID) {
		return len(room.Members), nil
	}
	if room.Full() {
		return len(room.Members), ErrRoomFull
	}

	own, err := m.RoomOf(ctx, player.ID)
	switch {
	case err == nil && own.Full():
		return len(room.Members), ErrAlreadyPlaying
	case err != nil && !errors.Is(err, ErrRoomNotFound):
		return 0, err
	}

	room.Members = append(room.Members, models.RoomMember{PlayerID: player.ID, Name: player.Name})
	if err := m.store.Rooms.Put(ctx, room); err != nil {
		return 0, err
	}

	if own != nil {
		if err := m.store.Rooms.Delete(ctx, own.ID); err != nil {
			return 0, err
		}
	}
	return len(room.Members), nil
}

// Room looks a room up by id.
func (m *Matchmaking) Room(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := m.store.Rooms.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return room, err
}

// DeleteRoom closes a room. Unknown ids are ignored.
func (m *Matchmaking) DeleteRoom(ctx context.Context, roomID string) error {
	return m.store.Rooms.Delete(ctx, roomID)
}

// OpenRooms lists the rooms waiting for a second player.
func (m *Matchmaking) OpenRooms(ctx context.Context) ([]*models.Room, error) {
	return m.store.Rooms.FindAll(ctx, func(r *models.Room) bool {
		return len(r.Members) == 1
	})
}

// Leaderboard lists every player with at least one win, most wins first.
func (m *Matchmaking) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	winners, err := m.store.Players.FindAll(ctx, func(p *models.Player) bool {
		return p.Wins > 0
	})
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(winners))
	for _, p := range winners {
		entries = append(entries, models.LeaderboardEntry{Name: p.Name, Wins: p.Wins})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
