// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/network"
	"github.com/wfunc/battleship/session"
)

var (
	ErrPlayerOffline = errors.New("player has no live connection")
)

// 广播接口
type Broadcaster interface {
	ToPlayer(playerID, msgType string, payload any) error
	ToAll(msgType string, payload any) error
}

// SessionBroadcaster delivers through the session manager's connections.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessionManager: sessionManager}
}

// ToPlayer sends to the connection mapped to playerID. An offline player is
// logged and reported, never fatal to the caller.
func (b *SessionBroadcaster) ToPlayer(playerID, msgType string, payload any) error {
	env, err := network.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	s, ok := b.sessionManager.ByPlayer(playerID)
	if !ok {
		logger.Log.Warnw("dropping message for offline player", "player", playerID, "type", msgType)
		return ErrPlayerOffline
	}
	if err := s.Send(env); err != nil {
		logger.Log.Warnw("send failed", "player", playerID, "session", s.GetID(), "type", msgType, "error", err)
		return err
	}
	return nil
}

// ToAll sends the same envelope to every live connection. Failing peers are
// skipped.
func (b *SessionBroadcaster) ToAll(msgType string, payload any) error {
	env, err := network.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	for _, s := range b.sessionManager.All() {
		if err := s.Send(env); err != nil {
			logger.Log.Debugw("broadcast send failed", "session", s.GetID(), "type", msgType, "error", err)
			continue
		}
	}
	return nil
}
