package relay

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-analyst/pkg/live"
	"github.com/teslashibe/go-analyst/pkg/protocol"
)

type fakeLive struct {
	mu     sync.Mutex
	audio  [][]byte
	texts  []string
	events chan live.Event
	once   sync.Once
}

func newFakeLive() *fakeLive {
	return &fakeLive{events: make(chan live.Event, 16)}
}

func (f *fakeLive) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, pcm)
	return nil
}

func (f *fakeLive) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeLive) Events() <-chan live.Event { return f.events }

func (f *fakeLive) Close() error {
	f.once.Do(func() { close(f.events) })
	return nil
}

func (f *fakeLive) received() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audio), append([]string(nil), f.texts...)
}

// startBridge serves the relay on a loopback port.
func startBridge(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	s := newTestServer(t, opts...)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.App().Listener(ln)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, "ws://" + ln.Addr().String()
}

func dialBridge(t *testing.T, base, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(base+"/api/ws/"+id, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendConfig(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	data, _ := protocol.Marshal(protocol.NewSessionConfig("Você é um assistente.", "Orus", "pt-BR"))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
}

func readInbound(t *testing.T, conn *websocket.Conn) *protocol.Inbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := protocol.ParseInbound(data)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func expectClose(t *testing.T, conn *websocket.Conn, code int, reason string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		t.Fatalf("expected close, got %v", err)
	}
	if ce.Code != code || ce.Text != reason {
		t.Errorf("close = %d %q, want %d %q", ce.Code, ce.Text, code, reason)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestBridgeRoundTrip(t *testing.T) {
	fake := newFakeLive()
	dialed := make(chan live.Config, 1)
	s, base := startBridge(t,
		WithKeys("", "", "g-key"),
		WithGenerator(&fakeGenerator{}),
		WithLiveDialer(func(ctx context.Context, cfg live.Config) (LiveSession, error) {
			dialed <- cfg
			return fake, nil
		}),
	)

	conn := dialBridge(t, base, "abc")
	// Audio before the config is dropped.
	conn.WriteMessage(websocket.BinaryMessage, []byte{9, 9})
	sendConfig(t, conn)

	var cfg live.Config
	select {
	case cfg = <-dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream never dialed")
	}
	if cfg.APIKey != "g-key" || cfg.SystemInstruction != "Você é um assistente." || cfg.Voice != "Orus" || cfg.Model != live.DefaultModel {
		t.Errorf("live config = %+v", cfg)
	}

	conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4})
	data, _ := protocol.Marshal(protocol.NewTextMessage("pesquise isso"))
	conn.WriteMessage(websocket.TextMessage, data)
	waitFor(t, func() bool {
		n, texts := fake.received()
		return n == 1 && len(texts) == 1 && texts[0] == "pesquise isso"
	})

	sessions := s.sessions.list()
	if len(sessions) != 1 || sessions[0].ID != "abc" {
		t.Errorf("sessions = %+v", sessions)
	}

	reply := protocol.NewTextResponse("PESQUISAR: dólar hoje")
	fake.events <- live.Event{Message: &reply}
	audio := protocol.NewAudioResponse([]byte{5, 6})
	fake.events <- live.Event{Message: &audio}

	if got := readInbound(t, conn); got.Type != protocol.TypeProviderResponse || got.Text != "PESQUISAR: dólar hoje" {
		t.Errorf("first frame = %+v", got)
	}
	if got := readInbound(t, conn); !got.HasAudio() {
		t.Errorf("second frame = %+v", got)
	}

	fake.events <- live.Event{Err: &live.CloseError{Code: 1011, Reason: "You exceeded your current quota"}}
	errFrame := readInbound(t, conn)
	if errFrame.Type != protocol.TypeError || errFrame.Message != "You exceeded your current quota" || errFrame.Code != 1011 {
		t.Errorf("error frame = %+v", errFrame)
	}
	expectClose(t, conn, websocket.CloseInternalServerErr, "You exceeded your current quota")

	waitFor(t, func() bool { return s.sessions.count() == 0 })
}

func TestBridgeWithoutKey(t *testing.T) {
	_, base := startBridge(t)
	conn := dialBridge(t, base, "nokey")
	sendConfig(t, conn)

	msg := readInbound(t, conn)
	if msg.Type != protocol.TypeError || msg.Message != "GOOGLE_API_KEY not configured" {
		t.Errorf("frame = %+v", msg)
	}
	expectClose(t, conn, websocket.CloseInternalServerErr, "GOOGLE_API_KEY not configured")
}

func TestBridgeDialFailure(t *testing.T) {
	_, base := startBridge(t,
		WithKeys("", "", "g-key"),
		WithGenerator(&fakeGenerator{}),
		WithLiveDialer(func(ctx context.Context, cfg live.Config) (LiveSession, error) {
			return nil, errors.New("live: connect failed with status 429: quota exceeded")
		}),
	)
	conn := dialBridge(t, base, "fail")
	sendConfig(t, conn)

	msg := readInbound(t, conn)
	if msg.Type != protocol.TypeError || !strings.Contains(msg.Message, "quota") {
		t.Errorf("frame = %+v", msg)
	}
	expectClose(t, conn, websocket.CloseInternalServerErr, msg.Message)
}

func TestBridgeNormalUpstreamClose(t *testing.T) {
	fake := newFakeLive()
	_, base := startBridge(t,
		WithKeys("", "", "g-key"),
		WithGenerator(&fakeGenerator{}),
		WithLiveDialer(func(ctx context.Context, cfg live.Config) (LiveSession, error) {
			return fake, nil
		}),
	)
	conn := dialBridge(t, base, "done")
	sendConfig(t, conn)

	fake.events <- live.Event{Err: &live.CloseError{Code: 1000, Reason: "session ended"}}
	expectClose(t, conn, websocket.CloseNormalClosure, "session ended")
}

func TestTruncateReason(t *testing.T) {
	long := strings.Repeat("é", 100)
	got := truncateReason(long)
	if len(got) > maxCloseReason || !strings.HasPrefix(long, got) {
		t.Errorf("truncateReason len = %d", len(got))
	}
	if truncateReason("quota") != "quota" {
		t.Error("short reasons are kept")
	}
}
