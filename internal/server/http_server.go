package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mlgudi/chance-man-sub000/internal/config"
	"github.com/mlgudi/chance-man-sub000/internal/gate"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/session"
)

// HttpServer exposes the local API the game-client plugin and UI talk to:
// JSON endpoints for status and control, plus the WebSocket feed carrying
// world events in and animation frames out.
type HttpServer struct {
	logger   *slog.Logger
	server   *http.Server
	tracker  *session.Tracker
	wsServer *WebSocketServer
}

func New(logger *slog.Logger, tracker *session.Tracker, wsServer *WebSocketServer) (*HttpServer, error) {
	s := &HttpServer{
		logger:   logger,
		tracker:  tracker,
		wsServer: wsServer,
	}
	wsServer.inbound = s.handleInbound
	return s, nil
}

func (s *HttpServer) Listen(port int) error {
	go s.wsServer.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.status)
	mux.HandleFunc("/api/roll", s.roll)
	mux.HandleFunc("/api/reset", s.reset)
	mux.HandleFunc("/api/profiles", s.profiles)
	mux.HandleFunc("/api/profile/activate", s.activateProfile)
	mux.HandleFunc("/api/config/reload", s.reloadConfig)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)

	s.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	s.logger.Info("Local API listening", "port", port)
	return s.server.ListenAndServe()
}

func (s *HttpServer) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(context.Background())
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.tracker.Status())
}

func (s *HttpServer) roll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.tracker.ManualRoll(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeJSON(w, map[string]string{"status": "queued"})
}

func (s *HttpServer) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.tracker.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeJSON(w, map[string]string{"status": "reset"})
}

func (s *HttpServer) profiles(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for name := range config.GetProfiles() {
		names = append(names, name)
	}
	s.writeJSON(w, names)
}

func (s *HttpServer) activateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.tracker.ActivateProfile(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.writeJSON(w, map[string]string{"status": "activated", "profile": req.Name})
}

func (s *HttpServer) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := config.Load(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.tracker.ReloadConfig()
	s.writeJSON(w, map[string]string{"status": "reloaded"})
}

func (s *HttpServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// inboundMessage is one WebSocket message from the game-client plugin.
type inboundMessage struct {
	Type string  `json:"type"`
	ID   string  `json:"id,omitempty"`
	Item item.ID `json:"item,omitempty"`
	Verb string  `json:"verb,omitempty"`
	Kind string  `json:"kind,omitempty"`

	Runes     map[string]int `json:"runes,omitempty"`
	Inventory []stackMessage `json:"inventory,omitempty"`
	Equipment []stackMessage `json:"equipment,omitempty"`
}

type stackMessage struct {
	ID       item.ID `json:"id"`
	Quantity int     `json:"quantity"`
}

type decisionMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

var actionKinds = map[string]gate.Kind{
	"examine": gate.KindExamine,
	"drop":    gate.KindDrop,
	"take":    gate.KindTake,
	"clean":   gate.KindClean,
	"tool":    gate.KindToolVerb,
	"cast":    gate.KindCast,
	"use":     gate.KindUse,
	"trade":   gate.KindTradeConfirm,
}

// handleInbound dispatches one message from a connected game client. Action
// messages get a per-message decision reply; everything else only feeds
// state.
func (s *HttpServer) handleInbound(client *Client, message []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.logger.Warn("Discarding malformed WebSocket message", "error", err)
		return
	}

	switch msg.Type {
	case "acquired":
		s.tracker.Acquired(msg.Item)
	case "ground":
		s.tracker.GroundItemSeen(msg.Item)
	case "holdings":
		s.tracker.UpdateHoldings(stacks(msg.Inventory), stacks(msg.Equipment))
	case "action":
		decision := s.tracker.Evaluate(gate.Action{
			Kind:  kindOf(msg.Kind),
			Item:  msg.Item,
			Verb:  msg.Verb,
			Spell: spellCost(msg.Runes),
		})
		data, err := json.Marshal(decisionMessage{Type: "decision", ID: msg.ID, Decision: decision.String()})
		if err != nil {
			return
		}
		s.wsServer.reply(client, data)
	default:
		s.logger.Warn("Unknown WebSocket message type", "type", msg.Type)
	}
}

// kindOf maps an action kind string onto its gate kind. Unknown kinds map to
// use so they fail toward gating rather than toward allowing.
func kindOf(kind string) gate.Kind {
	if k, ok := actionKinds[strings.ToLower(kind)]; ok {
		return k
	}
	return gate.KindUse
}

func spellCost(runes map[string]int) gate.SpellCost {
	if len(runes) == 0 {
		return nil
	}
	cost := make(gate.SpellCost, len(runes))
	for rt, qty := range runes {
		cost[gate.RuneType(strings.ToLower(rt))] = qty
	}
	return cost
}

func stacks(in []stackMessage) []gate.Stack {
	out := make([]gate.Stack, 0, len(in))
	for _, s := range in {
		out = append(out, gate.Stack{ID: s.ID, Quantity: s.Quantity})
	}
	return out
}
