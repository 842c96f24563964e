package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rps_webapp/internal/config"
	"rps_webapp/internal/db"
	"rps_webapp/internal/game"
	httpserver "rps_webapp/internal/http"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	srv      *httptest.Server
	sessions *service.SessionService
	rounds   *repository.SQLiteRoundRepository
}

func newTestServer(t *testing.T, delay time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := service.InitJWT("test-secret"); err != nil {
		t.Fatalf("init jwt: %v", err)
	}

	sdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rounds.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	rounds := repository.NewSQLiteRoundRepository(sdb)
	if err := rounds.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	els, _ := game.Variant(game.VariantClassic)
	sessions := service.NewSessionService(service.SessionConfig{
		Variant:  string(game.VariantClassic),
		Elements: els,
		Delay:    delay,
		TTL:      time.Hour,
	}, service.NewRoundRecorder(rounds, string(game.VariantClassic)))

	cfg := &config.Config{
		Version:        "test",
		APIRateLimit:   1000,
		APIRateWindow:  time.Minute,
		PlayRateLimit:  1000,
		PlayRateWindow: time.Minute,
	}

	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{Config: cfg, Sessions: sessions, Rounds: rounds})

	ts := &testServer{srv: httptest.NewServer(r), sessions: sessions, rounds: rounds}
	t.Cleanup(func() {
		ts.srv.Close()
		sessions.Shutdown()
		_ = rounds.Close()
	})
	return ts
}

func (ts *testServer) deleteSession(t *testing.T, token string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, ts.srv.URL+"/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete session status = %d", resp.StatusCode)
	}
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+"/api/v1/session", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return body.Token
}

func (ts *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until match returns true
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func stateMatching(t *testing.T, pred func(service.StateView) bool) func(frame) bool {
	return func(f frame) bool {
		if f.Type != "state" {
			return false
		}
		var st service.StateView
		if err := json.Unmarshal(f.Payload, &st); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return pred(st)
	}
}

func decodeState(t *testing.T, f frame) service.StateView {
	t.Helper()
	var st service.StateView
	if err := json.Unmarshal(f.Payload, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestE2E_WS_PlayCommitsAfterDelay(t *testing.T) {
	ts := newTestServer(t, 200*time.Millisecond)
	conn := ts.dial(t, ts.createSession(t))

	readUntil(t, conn, func(f frame) bool { return f.Type == "ready" })
	readUntil(t, conn, stateMatching(t, func(st service.StateView) bool { return st.RoundsPlayed == 0 }))

	if err := conn.WriteJSON(map[string]string{"type": "play", "value": "Rock"}); err != nil {
		t.Fatalf("send play: %v", err)
	}
	// second play lands while the first is animating
	if err := conn.WriteJSON(map[string]string{"type": "play", "value": "Paper"}); err != nil {
		t.Fatalf("send play: %v", err)
	}

	sawRejected := false
	f := readUntil(t, conn, func(f frame) bool {
		if f.Type == "rejected" {
			sawRejected = true
			return false
		}
		return stateMatching(t, func(st service.StateView) bool {
			return st.RoundsPlayed == 1 && !st.Animating
		})(f)
	})
	if !sawRejected {
		t.Fatal("expected the play sent while animating to be rejected")
	}

	st := decodeState(t, f)
	if st.History[0].Moves[game.PlayerIndex] != "Rock" {
		t.Fatalf("committed moves = %v; want player Rock", st.History[0].Moves)
	}
	if !st.CanPlay || !st.CanReset {
		t.Fatalf("settled state flags = %+v", st)
	}

	if err := conn.WriteJSON(map[string]string{"type": "reset"}); err != nil {
		t.Fatalf("send reset: %v", err)
	}
	readUntil(t, conn, stateMatching(t, func(st service.StateView) bool {
		return st.RoundsPlayed == 0 && st.Scores.Player == 0 && st.Scores.Opponent == 0
	}))

	ts.sessions.Shutdown()
	stats, err := ts.rounds.Stats(context.Background(), time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRounds != 1 || stats.MoveCounts["Rock"] != 1 {
		t.Fatalf("archive stats = %+v; want one Rock round", stats)
	}
}

func TestE2E_WS_SocketsShareSessionState(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)
	token := ts.createSession(t)
	a := ts.dial(t, token)
	b := ts.dial(t, token)

	for _, c := range []*websocket.Conn{a, b} {
		readUntil(t, c, func(f frame) bool { return f.Type == "state" })
	}

	if err := a.WriteJSON(map[string]string{"type": "simulate"}); err != nil {
		t.Fatalf("send simulate: %v", err)
	}

	settled := stateMatching(t, func(st service.StateView) bool { return st.RoundsPlayed == 1 && !st.Animating })
	readUntil(t, a, settled)
	readUntil(t, b, settled)
}

func TestE2E_WS_InvalidMessages(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)
	conn := ts.dial(t, ts.createSession(t))
	readUntil(t, conn, func(f frame) bool { return f.Type == "state" })

	if err := conn.WriteJSON(map[string]string{"type": "play", "value": "Lizard"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f := readUntil(t, conn, func(f frame) bool { return f.Type == "error" })
	if !strings.Contains(string(f.Payload), "invalid move") {
		t.Fatalf("error payload = %s", f.Payload)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	readUntil(t, conn, func(f frame) bool { return f.Type == "pong" })
}

func TestE2E_WS_RejectsBadToken(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)

	u := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("dial with bad token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token response = %v", resp)
	}
}

func TestE2E_WS_ClosedSessionClosesSocket(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)
	token := ts.createSession(t)
	conn := ts.dial(t, token)
	readUntil(t, conn, func(f frame) bool { return f.Type == "state" })

	ts.deleteSession(t, token)

	f := readUntil(t, conn, func(f frame) bool { return f.Type == "error" })
	if !strings.Contains(string(f.Payload), "session closed") {
		t.Fatalf("error payload = %s", f.Payload)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
		t.Fatalf("read after session close = %v; want close frame", err)
	}
}
