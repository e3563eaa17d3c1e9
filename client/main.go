package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/wfunc/battleship/game"
	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/models"
	"github.com/wfunc/battleship/network"
)

func main() {
	if err := newPlayCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newPlayCmd() *cobra.Command {
	var (
		host     string
		name     string
		password string
		random   bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the lobby and play one game with the standard fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init("debug", true); err != nil {
				return err
			}
			defer logger.Sync()
			return play(host, name, password, random)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&host, "host", "localhost:3000", "Server host:port")
	cmd.Flags().StringVar(&name, "name", fmt.Sprintf("bot-%04d", rand.IntN(10000)), "Player name")
	cmd.Flags().StringVar(&password, "password", "secret", "Player password")
	cmd.Flags().BoolVar(&random, "random", false, "Let the server pick attack cells")
	return cmd
}

type bot struct {
	conn     *websocket.Conn
	random   bool
	playerID string
	gameID   string
	me       string
	seated   bool
	targets  []models.Cell
}

// send formats and sends a message to the WebSocket server.
func (b *bot) send(msgType string, payload any) error {
	env, err := network.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	logger.Log.Debugf("-> SENT %s: %s", msgType, env.Data)
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func play(host, name, password string, random bool) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	b := &bot{conn: c, random: random, targets: shuffledGrid()}

	done := make(chan error, 1)
	go func() {
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			var env network.Envelope
			if err := json.Unmarshal(message, &env); err != nil {
				logger.Log.Warnf("Received invalid frame: %v", err)
				continue
			}
			logger.Log.Debugf("<- RECV %s: %s", env.Type, env.Data)
			finished, err := b.handle(env)
			if err != nil || finished {
				done <- err
				return
			}
		}
	}()

	if err := b.send(network.MsgTypeRegister, network.RegisterRequest{Name: name, Password: password}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-interrupt:
		logger.Log.Info("Interrupt received, closing connection.")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return err
	}
}

// handle reacts to one server event; it reports true once the game is over.
func (b *bot) handle(env network.Envelope) (bool, error) {
	switch env.Type {
	case network.MsgTypeRegistered:
		var r network.Registered
		if err := json.Unmarshal([]byte(env.Data), &r); err != nil {
			return false, err
		}
		b.playerID = r.Index
		if r.Error {
			logger.Log.Warnf("Registration: %s", r.ErrorText)
		}

	case network.MsgTypeRoomsUpdated:
		if b.seated || b.playerID == "" {
			return false, nil
		}
		var rooms []models.Room
		if err := json.Unmarshal([]byte(env.Data), &rooms); err != nil {
			return false, err
		}
		b.seated = true
		for _, r := range rooms {
			if !r.HasMember(b.playerID) {
				return false, b.send(network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: r.ID})
			}
		}
		return false, b.send(network.MsgTypeCreateRoom, struct{}{})

	case network.MsgTypeGameCreated:
		var g network.GameCreated
		if err := json.Unmarshal([]byte(env.Data), &g); err != nil {
			return false, err
		}
		b.gameID, b.me = g.IDGame, g.IDPlayer
		return false, b.send(network.MsgTypeSubmitFleet, network.SubmitFleetRequest{
			GameID:         b.gameID,
			InGamePlayerID: b.me,
			Ships:          game.StandardFleet(),
		})

	case network.MsgTypeTurn:
		var t network.Turn
		if err := json.Unmarshal([]byte(env.Data), &t); err != nil {
			return false, err
		}
		if t.CurrentPlayer != b.me {
			return false, nil
		}
		return false, b.fire()

	case network.MsgTypeGameFinished:
		var f network.GameFinished
		if err := json.Unmarshal([]byte(env.Data), &f); err != nil {
			return false, err
		}
		if f.WinPlayer == b.me {
			logger.Log.Info("Victory!")
		} else {
			logger.Log.Info("Defeat.")
		}
		return true, nil

	case network.MsgTypeError:
		logger.Log.Warnf("Server error: %s", env.Data)
	}
	return false, nil
}

func (b *bot) fire() error {
	if b.random || len(b.targets) == 0 {
		return b.send(network.MsgTypeRandomAttack, network.RandomAttackRequest{GameID: b.gameID, InGamePlayerID: b.me})
	}
	target := b.targets[0]
	b.targets = b.targets[1:]
	return b.send(network.MsgTypeAttack, network.AttackRequest{
		GameID:         b.gameID,
		InGamePlayerID: b.me,
		X:              target.X,
		Y:              target.Y,
	})
}

func shuffledGrid() []models.Cell {
	cells := make([]models.Cell, 0, game.BoardSize*game.BoardSize)
	for y := 0; y < game.BoardSize; y++ {
		for x := 0; x < game.BoardSize; x++ {
			cells = append(cells, models.Cell{X: x, Y: y})
		}
	}
	rand.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	return cells
}
