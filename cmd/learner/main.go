// Command learner is a stand-in decision process for development and
// end-to-end runs: it answers decide requests over WebSocket with a fixed
// or random policy instead of a trained model.
package main

import (
	"flag"
	"math/rand"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/skirmish/pkg/rts"
)

// decideMsg mirrors the learner wire request.
type decideMsg struct {
	Type    string            `json:"type"`
	AgentID int               `json:"agent_id"`
	Tick    int               `json:"tick"`
	Shape   []int             `json:"shape,omitempty"`
	Data    []float32         `json:"data,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// actionMsg mirrors the learner wire response.
type actionMsg struct {
	Strategy int  `json:"strategy"`
	Done     bool `json:"done"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		addr   string
		policy string
	)
	flag.StringVar(&addr, "addr", ":8801", "Listen address")
	flag.StringVar(&policy, "policy", "rush", "Policy: rush, random, or idle")
	flag.Parse()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()
		log.Info().Str("remote", r.RemoteAddr).Msg("Agent connected")
		serve(conn, policy)
	})

	log.Info().Str("addr", addr).Str("policy", policy).Msg("Mock learner listening")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func serve(conn *websocket.Conn, policy string) {
	for {
		var req decideMsg
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("read failed")
			}
			return
		}

		switch req.Type {
		case "decide":
			resp := actionMsg{Strategy: int(pick(policy, req.Tick))}
			if err := conn.WriteJSON(&resp); err != nil {
				log.Warn().Err(err).Msg("write failed")
				return
			}
		case "episode_end":
			log.Info().Int("agent", req.AgentID).Int("tick", req.Tick).Msg("Episode ended")
		default:
			log.Warn().Str("type", req.Type).Msg("unknown message type")
		}
	}
}

// pick chooses a strategy per the configured policy.
func pick(policy string, tick int) rts.StrategyID {
	switch strings.ToLower(policy) {
	case "random":
		return rts.StrategyID(rand.Intn(int(rts.NumStrategies)))
	case "idle":
		return rts.StrategyIdle
	default: // rush: workers early, then army, then attack
		switch {
		case tick < 100:
			return rts.StrategyBuildWorker
		case tick%3 == 0:
			return rts.StrategyBuildMelee
		default:
			return rts.StrategyAttack
		}
	}
}
