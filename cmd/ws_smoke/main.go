package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"rps_webapp/internal/logger"

	"github.com/gorilla/websocket"
)

type sessionResponse struct {
	SessionID string   `json:"session_id"`
	Token     string   `json:"token"`
	Elements  []string `json:"elements"`
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type stateView struct {
	RoundsPlayed int  `json:"rounds_played"`
	Animating    bool `json:"animating"`
	History      []struct {
		Result string    `json:"result"`
		Label  string    `json:"label"`
		Moves  [2]string `json:"moves"`
	} `json:"history"`
}

// ws_smoke opens a session against a running server, plays a few rounds over
// the websocket and prints each committed result.
func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	rounds := flag.Int("rounds", 3, "rounds to play")
	timeout := flag.Duration("timeout", 5*time.Second, "per-round timeout")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)

	sess, err := createSession(*addr)
	if err != nil {
		logger.Fatal("create session", "error", err)
	}
	logger.Info("session created", "session_id", sess.SessionID, "elements", sess.Elements)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(sess.Token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	for i := 0; i < *rounds; i++ {
		move := sess.Elements[i%len(sess.Elements)]
		if err := conn.WriteJSON(map[string]string{"type": "play", "value": move}); err != nil {
			logger.Fatal("send play", "error", err)
		}

		st, err := waitForRound(conn, i+1, *timeout)
		if err != nil {
			logger.Fatal("wait for round", "round", i+1, "error", err)
		}
		last := st.History[0]
		fmt.Printf("round %d: %s vs %s -> %s (%s)\n", i+1, last.Moves[0], last.Moves[1], last.Result, last.Label)
	}

	if err := conn.WriteJSON(map[string]string{"type": "simulate"}); err != nil {
		logger.Fatal("send simulate", "error", err)
	}
	st, err := waitForRound(conn, *rounds+1, *timeout)
	if err != nil {
		logger.Fatal("wait for simulated round", "error", err)
	}
	last := st.History[0]
	fmt.Printf("simulated: %s vs %s -> %s (%s)\n", last.Moves[0], last.Moves[1], last.Result, last.Label)

	if err := conn.WriteJSON(map[string]string{"type": "reset"}); err != nil {
		logger.Fatal("send reset", "error", err)
	}
	if _, err := waitForRound(conn, 0, *timeout); err != nil {
		logger.Fatal("wait for reset", "error", err)
	}
	fmt.Println("reset ok")
}

func createSession(addr string) (*sessionResponse, error) {
	resp, err := http.Post("http://"+addr+"/api/v1/session", "application/json", bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Elements) == 0 {
		return nil, fmt.Errorf("server returned no elements")
	}
	return &out, nil
}

// waitForRound reads frames until a settled state with want rounds arrives
func waitForRound(conn *websocket.Conn, want int, timeout time.Duration) (*stateView, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	defer conn.SetReadDeadline(time.Time{})

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return nil, err
		}

		switch f.Type {
		case "error", "rejected":
			return nil, fmt.Errorf("%s: %s", f.Type, f.Payload)
		case "state":
			var st stateView
			if err := json.Unmarshal(f.Payload, &st); err != nil {
				return nil, err
			}
			if !st.Animating && st.RoundsPlayed == want {
				return &st, nil
			}
		}
	}
}
