package server

import (
	"context"

	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/network"
	"github.com/wfunc/battleship/session"
)

type delivery struct {
	session  *session.Session // direct reply to the requester
	playerID string
	all      bool
	msgType  string
	payload  any
}

// outbox collects the effects of one request so they can be carried out
// after the coordinator mutex is released.
type outbox struct {
	deliveries []delivery
	records    []models.GameRecord
}

func (o *outbox) toSession(sess *session.Session, msgType string, payload any) {
	o.deliveries = append(o.deliveries, delivery{session: sess, msgType: msgType, payload: payload})
}

func (o *outbox) toPlayer(playerID, msgType string, payload any) {
	o.deliveries = append(o.deliveries, delivery{playerID: playerID, msgType: msgType, payload: payload})
}

func (o *outbox) toAll(msgType string, payload any) {
	o.deliveries = append(o.deliveries, delivery{all: true, msgType: msgType, payload: payload})
}

func (o *outbox) archive(rec models.GameRecord) {
	o.records = append(o.records, rec)
}

// flush sends in queue order. Send failures are logged by the broadcaster
// and never abort the remaining deliveries.
func (s *GameServer) flush(ctx context.Context, out *outbox) {
	for _, d := range out.deliveries {
		switch {
		case d.session != nil:
			env, err := network.NewEnvelope(d.msgType, d.payload)
			if err != nil {
				logger.Log.Errorw("encoding reply failed", "type", d.msgType, "error", err)
				continue
			}
			if err := d.session.Send(env); err != nil {
				logger.Log.Debugw("reply failed", "session", d.session.GetID(), "type", d.msgType, "error", err)
			}
		case d.all:
			_ = s.broadcaster.ToAll(d.msgType, d.payload)
		default:
			_ = s.broadcaster.ToPlayer(d.playerID, d.msgType, d.payload)
		}
	}

	for _, rec := range out.records {
		if err := s.playerService.Archive(ctx, rec); err != nil {
			logger.Log.Errorw("archiving game failed", "game", rec.GameID, "error", err)
		}
	}
}
