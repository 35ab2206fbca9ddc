// Package server exposes the game manager over websockets: a thin command
// gateway plus state-change push. It performs no game logic of its own.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Envelope is the inbound command frame.
type Envelope struct {
	RequestID string          `json:"request_id,omitempty"`
	GameID    string          `json:"game_id"`
	PlayerID  string          `json:"player_id"`
	Command   string          `json:"command"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// Event is the outbound frame: command results and server-initiated pushes
// share it.
type Event struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	GameID    string `json:"game_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// commandArgs covers the argument fields of every command; absent fields
// stay zero.
type commandArgs struct {
	Destination string             `json:"destination,omitempty"`
	CardID      string             `json:"card_id,omitempty"`
	CardIDs     []string           `json:"card_ids,omitempty"`
	CardType    data.CardType      `json:"card_type,omitempty"`
	Count       int                `json:"count,omitempty"`
	ToPlayerID  string             `json:"to_player_id,omitempty"`
	Selection   string             `json:"selection,omitempty"`
	Context     string             `json:"context,omitempty"`
	Money       int                `json:"money,omitempty"`
	Players     []game.PlayerSetup `json:"players,omitempty"`
}

// Gateway upgrades websocket connections and routes their commands to the
// manager's engines.
type Gateway struct {
	manager  *game.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]bool
}

// NewGateway creates a gateway over the manager.
func NewGateway(manager *game.Manager, logger *zap.Logger) *Gateway {
	return &Gateway{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

// ServeHTTP upgrades the request and starts the connection's pumps.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		gateway: g,
		conn:    conn,
		send:    make(chan []byte, 64),
		logger:  g.logger,
	}
	g.mu.Lock()
	g.clients[c] = true
	g.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// drop unregisters a client and tears down its game subscriptions.
func (g *Gateway) drop(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.clients[c] {
		return
	}
	delete(g.clients, c)
	close(c.send)
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
}

func (g *Gateway) handleMessage(c *client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.enqueue(mustMarshal(Event{Type: "error", Payload: "malformed message"}))
		return
	}
	var args commandArgs
	if len(env.Args) > 0 {
		if err := json.Unmarshal(env.Args, &args); err != nil {
			c.enqueue(mustMarshal(Event{Type: "error", RequestID: env.RequestID, Payload: "malformed args"}))
			return
		}
	}
	result := g.dispatch(c, env, args)
	c.enqueue(mustMarshal(Event{
		Type:      "command_result",
		RequestID: env.RequestID,
		GameID:    env.GameID,
		Payload:   result,
	}))
}

// dispatch routes one command. Every branch resolves to a CommandResult so
// the client always gets a message, never a dropped frame.
func (g *Gateway) dispatch(c *client, env Envelope, args commandArgs) game.CommandResult {
	switch env.Command {
	case "create_game":
		if _, err := g.manager.CreateGame(env.GameID, args.Players); err != nil {
			return game.CommandResult{Success: false, Message: err.Error()}
		}
		return game.CommandResult{Success: true, Message: "Game created"}
	case "subscribe":
		return g.subscribe(c, env.GameID)
	}

	engine, err := g.manager.GetGame(env.GameID)
	if err != nil {
		return game.CommandResult{Success: false, Message: err.Error()}
	}
	switch env.Command {
	case "roll_dice":
		return engine.RollDice(env.PlayerID)
	case "move":
		return engine.MovePlayer(env.PlayerID, args.Destination)
	case "get_valid_moves":
		return engine.GetValidMoves(env.PlayerID)
	case "trigger_manual_effects":
		return engine.TriggerManualEffects(env.PlayerID)
	case "play_card":
		return engine.PlayCard(env.PlayerID, args.CardID)
	case "draw_cards":
		return engine.DrawCards(env.PlayerID, args.CardType, args.Count)
	case "transfer_card":
		return engine.TransferCard(env.PlayerID, args.ToPlayerID, args.CardID)
	case "try_again":
		return engine.TryAgainOnSpace(env.PlayerID)
	case "end_turn":
		return engine.EndTurn(env.PlayerID)
	case "resolve_choice":
		return engine.ResolveChoice(env.PlayerID, args.Selection)
	case "initiate_negotiation":
		return engine.InitiateNegotiation(env.PlayerID, args.Context)
	case "make_offer":
		return engine.MakeOffer(env.PlayerID, args.CardIDs, args.Money)
	case "accept_negotiation":
		return engine.AcceptNegotiation(env.PlayerID)
	case "reject_negotiation":
		return engine.RejectNegotiation(env.PlayerID)
	case "get_state":
		return game.CommandResult{Success: true, Message: "Current state", Payload: map[string]any{"state": engine.State()}}
	default:
		return game.CommandResult{Success: false, Message: "unknown command " + env.Command}
	}
}

// subscribe registers the client for a game's state pushes and sends the
// current state immediately.
func (g *Gateway) subscribe(c *client, gameID string) game.CommandResult {
	engine, err := g.manager.GetGame(gameID)
	if err != nil {
		return game.CommandResult{Success: false, Message: err.Error()}
	}
	unsub := engine.Subscribe(func(gs state.GameState) {
		c.enqueue(mustMarshal(Event{
			Type:    "state_changed",
			GameID:  gameID,
			Payload: &gs,
		}))
	})
	g.mu.Lock()
	c.unsubscribe = append(c.unsubscribe, unsub)
	g.mu.Unlock()

	c.enqueue(mustMarshal(Event{
		Type:    "state_changed",
		GameID:  gameID,
		Payload: engine.State(),
	}))
	return game.CommandResult{Success: true, Message: "Subscribed to " + gameID}
}

func mustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		raw, _ = json.Marshal(Event{Type: "error", Payload: "failed to encode event"})
	}
	return raw
}
