package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/gameserver"
)

const (
	writeWait    = 10 * time.Second
	maxMessage   = 4096
	recordLimit  = 10
	closeTimeout = time.Second
)

// Handler upgrades HTTP requests to WebSockets and runs one trainer per
// connection.
type Handler struct {
	battles  *gameserver.BattleHandler
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
	wg     sync.WaitGroup
}

// NewHandler creates a Handler.
//
// Precondition: battles and logger must be non-nil.
func NewHandler(battles *gameserver.BattleHandler, logger *zap.Logger) *Handler {
	return &Handler{
		battles: battles,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[string]*websocket.Conn),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	id := uuid.NewString()
	if !h.track(id, conn) {
		_ = conn.Close()
		return
	}
	defer h.untrack(id)
	defer conn.Close()

	conn.SetReadLimit(maxMessage)
	c := &client{
		id:      id,
		conn:    conn,
		battles: h.battles,
		logger:  h.logger.With(zap.String("session", id), zap.String("remote_addr", r.RemoteAddr)),
	}
	c.logger.Info("websocket client connected")
	c.run(r.Context())
	c.logger.Info("websocket client disconnected")
}

func (h *Handler) track(id string, c *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[id] = c
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
	h.wg.Done()
}

// Active returns the number of connected clients.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close sends a going-away frame to every client, closes them and waits
// for their sessions to end. Later upgrades are refused.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	for _, c := range h.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		_ = c.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// client is one connected browser.
type client struct {
	id      string
	conn    *websocket.Conn
	battles *gameserver.BattleHandler
	logger  *zap.Logger
	joined  bool
}

func (c *client) run(ctx context.Context) {
	defer func() {
		if !c.joined {
			return
		}
		if err := c.battles.Leave(c.id); err != nil {
			c.logger.Warn("leaving game", zap.Error(err))
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := c.sendError(fmt.Sprintf("malformed message: %v", err)); err != nil {
				return
			}
			continue
		}
		if err := c.handle(ctx, msg); err != nil {
			c.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// handle processes one message. Only write failures are returned.
func (c *client) handle(ctx context.Context, msg ClientMessage) error {
	if msg.Type != TypeHello && !c.joined {
		return c.sendError("say hello first")
	}
	switch msg.Type {
	case TypeHello:
		return c.hello(ctx, msg)
	case TypeStatus:
		sess, ok := c.battles.Sessions().Get(c.id)
		if !ok {
			return c.sendError(gameserver.ErrUnknownTrainer.Error())
		}
		return c.send(ServerMessage{Type: TypeTrainer, Trainer: trainerInfo(sess)})
	case TypeRecords:
		recs, err := c.battles.Records(ctx, c.id, recordLimit)
		if err != nil {
			return c.sendError(err.Error())
		}
		return c.send(ServerMessage{Type: TypeRecords, Records: recordInfos(recs)})
	case TypeExplore:
		res, err := c.battles.Explore(ctx, c.id, msg.Table)
		if err != nil {
			return c.sendError(err.Error())
		}
		info := &ExploreInfo{Steps: res.Steps, Encountered: res.Encountered, Species: res.Species, Level: res.Level}
		if err := c.send(ServerMessage{Type: TypeExplore, Explore: info}); err != nil {
			return err
		}
		if !res.Encountered {
			return nil
		}
		return c.battleCall(func(sink combat.Sink) error {
			return c.battles.Pump(ctx, c.id, sink)
		})
	case TypeInput:
		in, err := combat.ParseInput(msg.Input)
		if err != nil {
			return c.sendError(err.Error())
		}
		return c.battleCall(func(sink combat.Sink) error {
			return c.battles.Submit(ctx, c.id, in, sink)
		})
	case TypeAction:
		var a combat.Action
		switch strings.ToLower(msg.Action) {
		case "fight":
			a = combat.ActionFight
		case "run":
			a = combat.ActionRun
		default:
			return c.sendError(fmt.Sprintf("unknown action %q", msg.Action))
		}
		return c.battleCall(func(sink combat.Sink) error {
			return c.battles.SelectAction(ctx, c.id, a, sink)
		})
	case TypeMove:
		return c.battleCall(func(sink combat.Sink) error {
			return c.battles.SelectMove(ctx, c.id, msg.Index, sink)
		})
	default:
		return c.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *client) hello(ctx context.Context, msg ClientMessage) error {
	if c.joined {
		return c.sendError("already joined")
	}
	sess, err := c.battles.Join(ctx, c.id, strings.TrimSpace(msg.Name), msg.Partner)
	if err != nil {
		return c.sendError(err.Error())
	}
	c.joined = true
	names := c.battles.Tables().IDs()
	return c.send(ServerMessage{Type: TypeWelcome, Trainer: trainerInfo(sess), Tables: names})
}

// battleCall runs fn with a sink that streams events, then sends the view
// while the battle is still running.
func (c *client) battleCall(fn func(combat.Sink) error) error {
	var writeErr error
	sink := combat.SinkFunc(func(_ context.Context, ev combat.Event) error {
		if err := c.send(eventMessage(ev)); err != nil {
			writeErr = err
			return err
		}
		return nil
	})
	err := fn(sink)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return c.sendError(err.Error())
	}
	v, err := c.battles.View(c.id)
	if errors.Is(err, gameserver.ErrNotInBattle) {
		return nil
	}
	if err != nil {
		return c.sendError(err.Error())
	}
	return c.send(ServerMessage{Type: TypeView, View: &v})
}

func (c *client) send(msg ServerMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *client) sendError(text string) error {
	return c.send(ServerMessage{Type: TypeError, Error: text})
}
