package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/fallback"
	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/search"
	"github.com/teslashibe/go-analyst/pkg/transport"
)

func TestReconnectPolicyDelay(t *testing.T) {
	p := DefaultReconnectPolicy
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{12, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.n); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestIsQuota(t *testing.T) {
	tests := []struct {
		text string
		code int
		want bool
	}{
		{"quota exceeded", 0, true},
		{"RESOURCE_EXHAUSTED: Quota", 0, true},
		{"Rate LIMIT reached", 0, true},
		{"billing account disabled", 0, true},
		{"Exceeded maximum", 0, true},
		{"too many requests", 429, true},
		{"connection reset", 1006, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		if got := IsQuota(tt.text, tt.code); got != tt.want {
			t.Errorf("IsQuota(%q, %d) = %v, want %v", tt.text, tt.code, got, tt.want)
		}
	}
}

func TestResolveInstruction(t *testing.T) {
	if got := ResolveInstruction("", ""); got != DefaultInstruction {
		t.Error("empty instruction should resolve to the default")
	}
	if got := ResolveInstruction("", PersonaAnalyst); got != DefaultInstruction {
		t.Error("analyst without instruction should resolve to the default")
	}
	if got := ResolveInstruction("analise a planilha", PersonaAnalyst); got != "analise a planilha" {
		t.Errorf("analyst instruction not adopted: %q", got)
	}
	if got := ResolveInstruction("fale do vídeo", PersonaAssistant); got != "fale do vídeo" {
		t.Errorf("explicit instruction not adopted: %q", got)
	}
	if !strings.Contains(DefaultInstruction, "PESQUISAR: [sua consulta aqui]") {
		t.Error("default instruction must teach the search sentinel")
	}
}

func TestConnectionText(t *testing.T) {
	s := State{Conn: StateConnected}
	if got := s.ConnectionText(); got != "Conectado" {
		t.Errorf("got %q", got)
	}
	s.Provider = ProviderFallback
	if got := s.ConnectionText(); got != "Conectado (Fallback)" {
		t.Errorf("got %q", got)
	}
	s.Conn = StateError
	if got := s.ConnectionText(); got != "Erro de Conexão (Fallback)" {
		t.Errorf("got %q", got)
	}
}

func TestNewRequiresDialer(t *testing.T) {
	if _, err := New(Deps{}); !errors.Is(err, ErrNoDialer) {
		t.Errorf("expected ErrNoDialer, got %v", err)
	}
}

func TestController_ConnectsWithDefaultSession(t *testing.T) {
	h := start(t)
	h.waitConnected()

	cfg := h.dialer.LastSession()
	if cfg.SystemInstruction != DefaultInstruction {
		t.Error("first session should carry the default instruction")
	}
	if cfg.Voice != "Orus" || cfg.Language != "pt-BR" {
		t.Errorf("voice/language = %q/%q", cfg.Voice, cfg.Language)
	}
	if ep := h.dialer.LastEndpoint(); !strings.HasPrefix(ep, "ws://relay/api/ws/") || len(ep) <= len("ws://relay/api/ws/") {
		t.Errorf("endpoint = %q", ep)
	}

	waitFor(t, "status Conectado", func() bool { return h.state().Status == "Conectado" })
	s := h.state()
	if s.Provider != ProviderPrimary || s.Attempts != 0 || s.Persona != PersonaAssistant {
		t.Errorf("state = %+v", s)
	}
	if !h.logged("Assistente inicializado.") || !h.logged("Conexão com o assistente estabelecida.") {
		t.Error("missing lifecycle timeline events")
	}
}

func TestController_ReconnectBackoffThenTerminal(t *testing.T) {
	h := start(t, func(s *setup) {
		s.dialFunc = func(ctx context.Context, endpoint string, cfg protocol.SessionConfig) (transport.Channel, error) {
			return nil, errRefused
		}
	})

	var delays []time.Duration
	for i := 1; i <= 3; i++ {
		d := h.fireReconnect()
		delays = append(delays, d)
		if i < 3 {
			waitFor(t, "next attempt", func() bool { return h.state().Attempts == i+1 })
		}
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i+1, delays[i], want[i])
		}
	}

	waitFor(t, "terminal error", func() bool { return h.state().Error == "Erro na conexão: dial refused" })
	if h.pendingReconnects() != 0 {
		t.Error("no reconnect may be scheduled after the last attempt")
	}
	if n := h.dialer.DialCount(); n != 4 {
		t.Errorf("dials = %d, want 4", n)
	}
	if s := h.state(); s.Attempts != 3 || s.Conn != StateError {
		t.Errorf("state = %+v", s)
	}
	if !h.logged("Tentativa de reconexão 2/3 em 2000ms") {
		t.Error("missing reconnect timeline entry")
	}
}

func TestController_AbnormalCloseReconnects(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateClose(transport.CloseAbnormal, "")
	waitFor(t, "reconnect status", func() bool { return h.state().Status == "Tentando reconectar... (1/3)" })
	if !h.logged("Conexão fechada: Conexão perdida") {
		t.Error("close should be logged with the default reason")
	}

	if d := h.fireReconnect(); d != time.Second {
		t.Errorf("first delay = %v", d)
	}
	waitFor(t, "second dial", func() bool { return h.dialer.DialCount() == 2 })
	waitFor(t, "attempts reset on open", func() bool {
		s := h.state()
		return s.Conn == StateConnected && s.Attempts == 0
	})
	if h.dialer.LastSession().SystemInstruction != DefaultInstruction {
		t.Error("reconnect should reuse the bound instruction")
	}
}

func TestController_NormalCloseIsTerminal(t *testing.T) {
	for _, code := range []int{transport.CloseNormal, transport.CloseGoingAway} {
		h := start(t)
		ch := h.waitConnected()
		ch.SimulateClose(code, "bye")

		waitFor(t, "terminal error", func() bool { return h.state().Error == errConnectionLost })
		if h.pendingReconnects() != 0 {
			t.Errorf("code %d: normal close must not reconnect", code)
		}
		if h.state().Conn != StateDisconnected {
			t.Errorf("code %d: conn = %v", code, h.state().Conn)
		}
	}
}

func TestController_QuotaCloseSwitchesToFallback(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateClose(transport.CloseInternalError, "quota exceeded")
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })

	s := h.state()
	if s.Conn != StateConnected {
		t.Errorf("conn = %v, want connected", s.Conn)
	}
	if s.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", s.Attempts)
	}
	if s.Status != "Conectado via OpenRouter (fallback)" {
		t.Errorf("status = %q", s.Status)
	}
	if s.ConnectionText() != "Conectado (Fallback)" {
		t.Errorf("connection text = %q", s.ConnectionText())
	}
	if h.pendingReconnects() != 0 {
		t.Error("fallback must not schedule a reconnect")
	}
	if h.dialer.DialCount() != 1 {
		t.Errorf("dials = %d", h.dialer.DialCount())
	}
	if !h.logged("Ativando fallback OpenRouter devido a erro de quota do Gemini") {
		t.Error("missing fallback timeline entry")
	}
	if h.fb.Instruction() != DefaultInstruction {
		t.Error("fallback provider should receive the session instruction")
	}
}

func TestController_FallbackSwitchHappensOnce(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()
	ch.SimulateMessage(protocol.NewErrorMessage("Too many requests", 429))
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })

	h.c.SetError("quota exceeded again")
	waitFor(t, "error shown", func() bool { return h.state().Error == "quota exceeded again" })
	if n := h.builds.Load(); n != 1 {
		t.Errorf("fallback built %d times, want 1", n)
	}
	if h.state().Provider != ProviderFallback {
		t.Error("fallback must stay active")
	}
}

func TestController_QuotaStatusTriggersFallback(t *testing.T) {
	h := start(t)
	h.waitConnected()
	h.c.SetStatus("Limite de uso atingido")
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })
	if h.state().Status == "Limite de uso atingido" {
		t.Error("quota status should not be displayed")
	}
}

func TestController_FallbackUnavailableReconnects(t *testing.T) {
	h := start(t, func(s *setup) { s.noFallback = true })
	ch := h.waitConnected()

	ch.SimulateClose(transport.CloseInternalError, "quota exceeded")
	waitFor(t, "reconnect", func() bool { return h.pendingReconnects() == 1 })
	if h.state().Provider != ProviderPrimary {
		t.Error("provider must stay primary when fallback cannot start")
	}
	if !h.loggedPrefix("Fallback falhou: ") {
		t.Error("fallback failure should be logged")
	}
}

func TestController_ConnectFailureQuota(t *testing.T) {
	h := start(t, func(s *setup) {
		s.dialFunc = func(ctx context.Context, endpoint string, cfg protocol.SessionConfig) (transport.Channel, error) {
			return nil, &transport.ConnectError{Endpoint: endpoint, StatusCode: 429, Cause: errors.New("bad handshake")}
		}
	})
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })
	if h.state().Attempts != 0 {
		t.Error("quota on connect must not consume attempts")
	}
}

func TestController_ErrorEventRetiresChannelOnce(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateError(errors.New("read tcp: connection reset"))
	ch.SimulateClose(transport.CloseAbnormal, "")
	waitFor(t, "reconnect", func() bool { return h.pendingReconnects() == 1 })
	time.Sleep(20 * time.Millisecond)
	if s := h.state(); s.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", s.Attempts)
	}
	if !h.logged("Erro na conexão: read tcp: connection reset") {
		t.Error("error should be logged")
	}
}

func TestController_ResetShortCircuitsOpenChannel(t *testing.T) {
	h := start(t)
	h.waitConnected()

	h.c.Reset()
	waitFor(t, "reset logged", func() bool { return h.logged("Sessão reiniciada para o modo geral.") && h.state().Status == "Conectado" })
	if h.dialer.DialCount() != 1 {
		t.Errorf("reset with unchanged instruction redialed: %d dials", h.dialer.DialCount())
	}
}

func TestController_BindContentAndReset(t *testing.T) {
	h := start(t)
	first := h.waitConnected()

	h.c.BindContent(Content{
		Title:       "Vendas 2024",
		Source:      "https://docs.google.com/spreadsheets/d/abc",
		Instruction: "Você é um analista de dados.",
		Persona:     PersonaAnalyst,
	})
	waitFor(t, "rebind dial", func() bool { return h.dialer.DialCount() == 2 })
	waitFor(t, "ready status", func() bool { return h.state().Status == `Pronto! Pergunte sobre "Vendas 2024"` })

	if first.IsOpen() {
		t.Error("previous channel should be closed")
	}
	if got := h.dialer.LastSession().SystemInstruction; got != "Você é um analista de dados." {
		t.Errorf("instruction = %q", got)
	}
	h.waitConnected()
	s := h.state()
	if s.Content == nil || s.Content.Title != "Vendas 2024" || s.Persona != PersonaAnalyst {
		t.Errorf("state = %+v", s)
	}
	if s.Status != `Pronto! Pergunte sobre "Vendas 2024"` {
		t.Errorf("opening with bound content should keep the ready status, got %q", s.Status)
	}

	h.c.Reset()
	waitFor(t, "reset dial", func() bool { return h.dialer.DialCount() == 3 })
	s = h.state()
	if s.Content != nil || s.SearchResults != nil {
		t.Error("reset must clear bound content")
	}
	if h.dialer.LastSession().SystemInstruction != DefaultInstruction {
		t.Error("reset must restore the default instruction")
	}
}

func TestController_ResetRevertsFallback(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()
	ch.SimulateClose(transport.CloseInternalError, "billing required")
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })

	h.c.BindContent(Content{Title: "Repo", Instruction: "Fale do repo."})
	waitFor(t, "instruction forwarded", func() bool { return h.fb.Instruction() == "Fale do repo." })
	if h.dialer.DialCount() != 1 {
		t.Error("fallback is sticky: binding content must not redial the primary")
	}

	h.c.Reset()
	waitFor(t, "primary redial", func() bool { return h.dialer.DialCount() == 2 })
	waitFor(t, "primary connected", func() bool {
		s := h.state()
		return s.Provider == ProviderPrimary && s.Conn == StateConnected
	})
}

func TestController_SearchCycle(t *testing.T) {
	searcher := &blockingSearcher{release: make(chan struct{})}
	h := start(t, func(s *setup) { s.searcher = searcher })
	ch := h.waitConnected()

	h.c.StartRecording()
	waitFor(t, "recording", func() bool { return h.state().Recording })
	h.src.Push(micChunk())
	waitFor(t, "mic frame", func() bool { return h.audioFrames(ch) == 1 })

	ch.SimulateMessage(protocol.NewTextResponse("Vou pesquisar isso.\nPESQUISAR: clima em SP\n"))
	waitFor(t, "search cycle", func() bool { return h.state().Search != nil })

	s := h.state()
	if s.Search.Query != "clima em SP" {
		t.Errorf("query = %q", s.Search.Query)
	}
	if s.Recording || h.src.Running() {
		t.Error("recording must stop when a search starts")
	}
	if h.sink.Clears() == 0 {
		t.Error("playback must be flushed when a search starts")
	}
	if s.Status != `🔍 Pesquisando: "clima em SP"...` {
		t.Errorf("status = %q", s.Status)
	}

	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 480)))
	time.Sleep(20 * time.Millisecond)
	if n := len(h.sink.Written()); n != 0 {
		t.Errorf("audio played during search: %d chunks", n)
	}

	close(searcher.release)
	waitFor(t, "search end", func() bool { return h.state().Search == nil && h.logged("🔓 Sistema desbloqueado") })

	want := search.SuccessTurn(search.FormatResults(sampleResponse("clima em SP")))
	texts := ch.Texts()
	if len(texts) != 1 || texts[0] != want {
		t.Errorf("injected turns = %q", texts)
	}
	s = h.state()
	if s.Status != "✅ Pesquisa concluída - Assistente desbloqueado" {
		t.Errorf("status = %q", s.Status)
	}
	if len(s.SearchResults) != 2 || s.SearchResults[0].URI != "https://tempo.example/sp" {
		t.Errorf("results = %+v", s.SearchResults)
	}
	if latest, _ := h.tl.Latest(); latest.Message != "🔓 Sistema desbloqueado" {
		t.Errorf("latest timeline = %q", latest.Message)
	}
	if !h.logged(`🔍 PESQUISA ATIVADA: "clima em SP"`) || !h.logged("✅ PESQUISA CONCLUÍDA - 2 fontes encontradas:") {
		t.Error("missing search timeline entries")
	}

	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 480)))
	waitFor(t, "audio after search", func() bool { return len(h.sink.Written()) == 1 })
}

func TestController_SearchSplitAcrossFragments(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateMessage(protocol.NewTextResponse("Um instante.\nPESQ"))
	ch.SimulateMessage(protocol.NewTextResponse("UISAR: notícias de hoje\n"))
	waitFor(t, "search", func() bool { return h.searcher.calls.Load() == 1 })
	if q := h.searcher.Queries(); q[0] != "notícias de hoje" {
		t.Errorf("query = %q", q[0])
	}
}

func TestController_SearchQueryStreamedUntilTurnComplete(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 4800)))
	waitFor(t, "played", func() bool { return len(h.sink.Written()) == 1 })
	clears := h.sink.Clears()

	ch.SimulateMessage(protocol.NewTextResponse("Vou pesquisar...\nSEARCH: clima"))
	waitFor(t, "held cycle", func() bool { return h.state().Search != nil })
	if h.sink.Clears() == clears {
		t.Error("playback must be flushed as soon as the sentinel appears")
	}
	if q := h.state().Search.Query; q != "" {
		t.Errorf("query fired early: %q", q)
	}

	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 480)))
	ch.SimulateMessage(protocol.NewTextResponse(" em São Paulo"))
	ch.SimulateMessage(protocol.Inbound{Type: protocol.TypeProviderResponse, TurnComplete: true})

	waitFor(t, "search", func() bool { return h.searcher.calls.Load() == 1 })
	if q := h.searcher.Queries(); q[0] != "clima em São Paulo" {
		t.Errorf("query = %q", q[0])
	}
	if n := len(h.sink.Written()); n != 1 {
		t.Errorf("audio played while the query was held: %d chunks", n)
	}
	waitFor(t, "search end", func() bool { return h.state().Search == nil })
}

func TestController_HeldSearchReleasedOnClose(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateMessage(protocol.NewTextResponse("PESQUISAR: cotação"))
	waitFor(t, "held cycle", func() bool { return h.state().Search != nil })

	ch.SimulateClose(transport.CloseAbnormal, "")
	waitFor(t, "cycle released", func() bool { return h.state().Search == nil })
	if h.searcher.calls.Load() != 0 {
		t.Error("no search should run for a dropped turn")
	}
}

func TestController_SearchFailure(t *testing.T) {
	searcher := newSearcher()
	searcher.err = errors.New("upstream 502")
	h := start(t, func(s *setup) { s.searcher = searcher })
	ch := h.waitConnected()

	ch.SimulateMessage(protocol.NewTextResponse("SEARCH: dólar hoje\n"))
	waitFor(t, "failure turn", func() bool { return len(ch.Texts()) == 1 })

	if got := ch.Texts()[0]; got != search.FailureTurn {
		t.Errorf("turn = %q", got)
	}
	waitFor(t, "cycle cleared", func() bool { return h.state().Search == nil })
	if !strings.HasPrefix(h.state().Error, "❌ Erro na pesquisa: ") {
		t.Errorf("error = %q", h.state().Error)
	}
}

func TestController_InterruptedFlushesPlayback(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 4800)))
	waitFor(t, "played", func() bool { return len(h.sink.Written()) == 1 })

	clears := h.sink.Clears()
	ch.SimulateMessage(protocol.Inbound{Type: protocol.TypeProviderResponse, Interrupted: true})
	waitFor(t, "flush", func() bool { return h.sink.Clears() == clears+1 })
}

func TestController_FailuresFlushPlayback(t *testing.T) {
	tests := []struct {
		name string
		fail func(ch *transport.MockChannel)
	}{
		{"normal close", func(ch *transport.MockChannel) { ch.SimulateClose(transport.CloseNormal, "bye") }},
		{"abnormal close", func(ch *transport.MockChannel) { ch.SimulateClose(transport.CloseAbnormal, "") }},
		{"error event", func(ch *transport.MockChannel) { ch.SimulateError(errRefused) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := start(t)
			ch := h.waitConnected()

			ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 48000)))
			waitFor(t, "played", func() bool { return len(h.sink.Written()) == 1 })

			clears := h.sink.Clears()
			tt.fail(ch)
			waitFor(t, "flush", func() bool { return h.sink.Clears() > clears })
		})
	}
}

func TestController_SendFailureFlushesPlayback(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	h.c.StartRecording()
	waitFor(t, "recording", func() bool { return h.state().Recording })
	ch.SimulateMessage(protocol.NewAudioResponse(make([]byte, 4800)))
	waitFor(t, "played", func() bool { return len(h.sink.Written()) == 1 })

	clears := h.sink.Clears()
	ch.SendFunc = func(transport.Frame) error { return transport.ErrNotConnected }
	h.src.Push(micChunk())
	waitFor(t, "flush", func() bool { return h.sink.Clears() > clears })
	waitFor(t, "recording stopped", func() bool { return !h.state().Recording })
}

func TestController_CloseStopsCapture(t *testing.T) {
	h := start(t)
	ch := h.waitConnected()

	h.c.StartRecording()
	waitFor(t, "recording", func() bool { return h.state().Recording })

	ch.SimulateClose(transport.CloseAbnormal, "")
	waitFor(t, "capture stopped", func() bool { return !h.state().Recording && !h.src.Running() })
	if !h.logged("Gravação parada.") {
		t.Error("stop should be logged")
	}
}

func TestController_StartRecordingRequiresConnection(t *testing.T) {
	h := start(t, func(s *setup) {
		s.dialFunc = func(ctx context.Context, endpoint string, cfg protocol.SessionConfig) (transport.Channel, error) {
			return nil, errRefused
		}
	})
	waitFor(t, "connect failure", func() bool { return h.state().Attempts == 1 })

	h.c.StartRecording()
	waitFor(t, "error", func() bool { return strings.HasPrefix(h.state().Error, "Assistente não conectado") })
	if h.src.Running() {
		t.Error("capture must not start without a channel")
	}
}

func TestController_PermissionDenied(t *testing.T) {
	h := start(t, func(s *setup) {
		s.srcOpts = []audioio.MockSourceOption{audioio.WithStartError(audioio.ErrPermissionDenied)}
	})
	h.waitConnected()

	h.c.StartRecording()
	waitFor(t, "error", func() bool {
		return h.state().Error == "Erro ao iniciar gravação: permissão de microfone negada"
	})
	if h.state().Recording {
		t.Error("recording must not be active")
	}
}

func TestController_ErrorAutoClears(t *testing.T) {
	h := start(t, func(s *setup) { s.ttl = DefaultErrorTTL })
	h.waitConnected()

	h.c.SetError("algo deu errado")
	waitFor(t, "error", func() bool { return h.state().Error == "algo deu errado" })
	var timers []*fakeTimer
	waitFor(t, "ttl timer", func() bool {
		timers = nil
		for _, tm := range h.timers.pending(0) {
			if tm.d == DefaultErrorTTL {
				timers = append(timers, tm)
			}
		}
		return len(timers) == 1
	})

	h.c.SetError("outro erro")
	waitFor(t, "second error", func() bool { return h.state().Error == "outro erro" })

	h.timers.fire(timers[0])
	time.Sleep(20 * time.Millisecond)
	if h.state().Error != "outro erro" {
		t.Error("a stale timer must not clear a newer error")
	}

	for _, tm := range h.timers.pending(0) {
		if tm.d == DefaultErrorTTL {
			h.timers.fire(tm)
		}
	}
	waitFor(t, "cleared", func() bool { return h.state().Error == "" })
}

func enterFallback(t *testing.T, h *harness) {
	t.Helper()
	ch := h.waitConnected()
	ch.SimulateClose(transport.CloseInternalError, "quota exceeded")
	waitFor(t, "fallback", func() bool { return h.state().Provider == ProviderFallback })
}

func TestController_FallbackRecordingTurn(t *testing.T) {
	h := start(t)
	enterFallback(t, h)

	h.c.StartRecording()
	waitFor(t, "recording", func() bool { return h.state().Recording })
	if h.state().Status != "🔴 Gravando... Fale agora (Fallback)." {
		t.Errorf("status = %q", h.state().Status)
	}
	h.src.Push(micChunk())
	h.c.StopRecording()

	waitFor(t, "spoken reply", func() bool { return len(h.sink.Written()) == 1 })
	if p := h.fb.Prompts(); len(p) != 1 || p[0] != "oi" {
		t.Errorf("prompts = %q", p)
	}
	if !h.logged("Fala reconhecida: oi") || !h.logged("Resposta recebida do OpenRouter.") {
		t.Error("missing fallback timeline entries")
	}
	waitFor(t, "ready status", func() bool { return h.state().Status == "Conectado via OpenRouter (fallback)" })
}

func TestController_FallbackReplySentinelSearches(t *testing.T) {
	fb := &fakeFallback{respond: func(n int, text string) (string, error) {
		if n == 1 {
			return "Vou verificar.\nPESQUISAR: cotação do dólar", nil
		}
		return "O dólar está a cinco reais.", nil
	}}
	h := start(t, func(s *setup) { s.fallback = fb })
	enterFallback(t, h)

	h.c.SendText("quanto está o dólar?")
	waitFor(t, "second prompt", func() bool { return len(fb.Prompts()) == 2 })

	want := search.SuccessTurn(search.FormatResults(sampleResponse("cotação do dólar")))
	if got := fb.Prompts()[1]; got != want {
		t.Errorf("search turn = %q", got)
	}
	waitFor(t, "spoken", func() bool {
		s := fb.Spoken()
		return len(s) == 1 && s[0] == "O dólar está a cinco reais."
	})
	if h.searcher.calls.Load() != 1 {
		t.Error("expected one search")
	}
}

func TestController_RecognitionUnavailable(t *testing.T) {
	fb := &fakeFallback{recognize: func(audioio.AudioChunk) (string, error) {
		return "", &fallback.TurnError{Stage: fallback.StageRecognize, Err: fallback.ErrRecognitionUnavailable}
	}}
	h := start(t, func(s *setup) { s.fallback = fb })
	enterFallback(t, h)

	h.c.StartRecording()
	waitFor(t, "recording", func() bool { return h.state().Recording })
	h.c.StopRecording()

	waitFor(t, "error", func() bool {
		return h.state().Error == "Reconhecimento de fala não disponível neste dispositivo."
	})
	if len(fb.Prompts()) != 0 {
		t.Error("nothing should be sent without a transcript")
	}
}

func TestController_FallbackFailureNotRetried(t *testing.T) {
	fb := &fakeFallback{respond: func(n int, text string) (string, error) {
		return "", errors.New("OpenRouter API error: 500")
	}}
	h := start(t, func(s *setup) { s.fallback = fb })
	enterFallback(t, h)

	h.c.SendText("oi")
	waitFor(t, "error", func() bool {
		return h.state().Error == "Erro ao comunicar com OpenRouter: OpenRouter API error: 500"
	})
	time.Sleep(20 * time.Millisecond)
	if len(fb.Prompts()) != 1 || h.builds.Load() != 1 || h.dialer.DialCount() != 1 {
		t.Error("a fallback failure must not cascade into another attempt")
	}
}
