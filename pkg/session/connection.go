package session

import (
	"fmt"

	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/timeline"
	"github.com/teslashibe/go-analyst/pkg/transport"
)

const (
	statusConnected     = "Conectado"
	statusConnecting    = "Conectando ao assistente..."
	statusReset         = "Sessão reiniciada."
	statusFallbackReady = "Conectado via OpenRouter (fallback)"

	errConnectionLost = "Conexão perdida. Clique em reiniciar para reconectar."
	errConnection     = "Erro na conexão. Clique em reiniciar para reconectar."
)

// initSession starts a session. An empty explicit instruction is a reset:
// bound content, search results and the fallback switch are cleared first.
func (c *Controller) initSession(explicit string, persona Persona) {
	c.cancelReconnect()

	if explicit == "" {
		c.recorder.Stop()
		c.stopRecording()
		c.abortSearch()
		c.turnSeq++
		if c.fb != nil {
			if closer, ok := c.fb.(interface{ Close() error }); ok {
				closer.Close()
			}
			c.fb = nil
		}
		c.update(func(s *State) {
			s.Content = nil
			s.SearchResults = nil
			s.Provider = ProviderPrimary
			s.Attempts = 0
		})
		c.setStatus(statusReset)
		c.log("Sessão reiniciada para o modo geral.", timeline.Info)
	}

	instruction := ResolveInstruction(explicit, persona)
	if persona == "" {
		persona = PersonaAssistant
	}

	if c.state.Provider == ProviderFallback {
		c.fb.SetInstruction(instruction)
		c.update(func(s *State) {
			s.Instruction = instruction
			s.Persona = persona
			s.Conn = StateConnected
		})
		c.setStatus(statusFallbackReady)
		return
	}

	if c.ch != nil && c.ch.IsOpen() && instruction == c.state.Instruction {
		c.update(func(s *State) {
			s.Persona = persona
			s.Conn = StateConnected
		})
		c.setStatus(statusConnected)
		return
	}

	c.stopRecording()
	c.retireChannel()
	c.update(func(s *State) {
		s.Instruction = instruction
		s.Persona = persona
		s.Conn = StateConnecting
	})
	c.setStatus(statusConnecting)
	c.dial()
}

func (c *Controller) dial() {
	gen := c.gen
	endpoint := c.endpoint()
	cfg := protocol.NewSessionConfig(c.state.Instruction, c.cfg.Voice, c.cfg.Language)
	ctx := c.ctx

	c.logger.Debug("dialing", "endpoint", endpoint, "gen", gen)
	go func() {
		ch, err := c.dialer.Dial(ctx, endpoint, cfg)
		c.dispatch(func() { c.onDialed(gen, ch, err) })
	}()
}

func (c *Controller) onDialed(gen uint64, ch transport.Channel, err error) {
	if gen != c.gen {
		if ch != nil {
			ch.Close()
		}
		return
	}
	if err != nil {
		c.onConnectFailure(err)
		return
	}
	c.ch = ch
	go c.pump(gen, ch)
}

func (c *Controller) pump(gen uint64, ch transport.Channel) {
	for ev := range ch.Events() {
		ev := ev
		c.dispatch(func() { c.onEvent(gen, ev) })
	}
}

// retireChannel detaches the current channel so its remaining events and
// any in-flight dial are ignored, then closes it.
func (c *Controller) retireChannel() {
	c.gen++
	c.scanner.Reset()
	c.releaseHeldSearch()
	if c.ch == nil {
		return
	}
	ch := c.ch
	c.ch = nil
	if err := ch.Close(); err != nil {
		c.logger.Debug("close channel", "error", err)
	}
}

func (c *Controller) onEvent(gen uint64, ev transport.Event) {
	if gen != c.gen {
		return
	}
	switch ev.Kind {
	case transport.EventOpened:
		c.onOpened()
	case transport.EventMessage:
		if ev.Message != nil {
			c.onMessage(ev.Message)
		}
	case transport.EventError:
		c.onError(ev.Err)
	case transport.EventClosed:
		c.onClosed(ev.Code, ev.Reason)
	}
}

func (c *Controller) onOpened() {
	c.update(func(s *State) {
		s.Conn = StateConnected
		s.Attempts = 0
	})
	c.log("Conexão com o assistente estabelecida.", timeline.Connect)
	if c.state.Content == nil {
		c.setStatus(statusConnected)
	}
}

func (c *Controller) onMessage(msg *protocol.Inbound) {
	switch msg.Type {
	case protocol.TypeError:
		text := msg.Message
		if text == "" {
			text = "Erro no backend"
		}
		if c.isPrimary() && IsQuota(text, msg.Code) && c.tryFallback("na mensagem do servidor") {
			return
		}
		c.setError(text)
	case protocol.TypeProviderResponse:
		c.onProviderResponse(msg)
	default:
		c.logger.Debug("ignoring message", "type", msg.Type)
	}
}

func (c *Controller) onError(err error) {
	msg := "Erro desconhecido"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	c.update(func(s *State) { s.Conn = StateError })
	c.log("Erro na conexão: "+msg, timeline.Error)
	c.stopRecording()
	c.flushPlayback()

	if c.isPrimary() && IsQuota(msg, transport.StatusCode(err)) && c.tryFallback("no erro da conexão") {
		return
	}
	c.retireChannel()
	c.reconnectOr(errConnection)
}

func (c *Controller) onClosed(code int, reason string) {
	c.update(func(s *State) { s.Conn = StateDisconnected })
	shown := reason
	if shown == "" {
		shown = "Conexão perdida"
	}
	c.log("Conexão fechada: "+shown, timeline.Disconnect)
	c.stopRecording()
	c.flushPlayback()

	if c.isPrimary() && IsQuota(reason, code) && c.tryFallback("no fechamento da conexão") {
		return
	}
	c.retireChannel()
	if !transport.IsNormalClose(code) {
		c.reconnectOr(errConnectionLost)
		return
	}
	c.setError(errConnectionLost)
}

func (c *Controller) onConnectFailure(err error) {
	c.update(func(s *State) { s.Conn = StateError })
	c.log("Falha na conexão: "+err.Error(), timeline.Error)
	c.flushPlayback()

	if c.isPrimary() && IsQuota(err.Error(), transport.StatusCode(err)) && c.tryFallback("na conexão") {
		return
	}
	c.reconnectOr("Erro na conexão: " + err.Error())
}

// reconnectOr schedules a reconnect if attempts remain, else shows terminal.
func (c *Controller) reconnectOr(terminal string) {
	if c.state.Attempts < c.cfg.Reconnect.MaxAttempts {
		c.scheduleReconnect()
		return
	}
	c.setError(terminal)
}

func (c *Controller) scheduleReconnect() {
	n := c.state.Attempts + 1
	limit := c.cfg.Reconnect.MaxAttempts
	delay := c.cfg.Reconnect.Delay(n)
	c.update(func(s *State) { s.Attempts = n })

	c.setStatus(fmt.Sprintf("Tentando reconectar... (%d/%d)", n, limit))
	c.log(fmt.Sprintf("Tentativa de reconexão %d/%d em %dms", n, limit, delay.Milliseconds()), timeline.Info)

	c.cancelReconnect()
	seq := c.reconnectSeq
	c.reconnect = c.cfg.AfterFunc(delay, func() {
		c.dispatch(func() {
			if seq != c.reconnectSeq {
				return
			}
			c.reconnect = nil
			c.initSession(c.state.Instruction, c.state.Persona)
		})
	})
}

func (c *Controller) cancelReconnect() {
	c.reconnectSeq++
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
}

func (c *Controller) isPrimary() bool {
	return c.state.Provider == ProviderPrimary
}

// tryFallback switches to the fallback provider after a quota signal.
// It reports whether the switch happened.
func (c *Controller) tryFallback(where string) bool {
	c.log(fmt.Sprintf("Erro de quota detectado %s, tentando fallback...", where), timeline.Info)
	if err := c.activateFallback(); err != nil {
		c.log("Fallback falhou: "+err.Error(), timeline.Error)
		return false
	}
	return true
}

// activateFallback performs the one-way switch. Reconnect attempts are left
// untouched; the primary channel is closed.
func (c *Controller) activateFallback() error {
	if c.state.Provider == ProviderFallback {
		return nil
	}
	c.log("Ativando fallback OpenRouter devido a erro de quota do Gemini", timeline.Info)
	if c.newFallback == nil {
		return ErrNoFallback
	}
	fb, err := c.newFallback()
	if err != nil {
		c.log("Erro ao configurar fallback: "+err.Error(), timeline.Error)
		return err
	}

	c.cancelReconnect()
	c.stopRecording()
	c.retireChannel()
	c.flushPlayback()

	fb.SetInstruction(c.state.Instruction)
	c.fb = fb
	c.turnSeq++
	c.update(func(s *State) {
		s.Provider = ProviderFallback
		s.Conn = StateConnected
	})
	c.log("Fallback OpenRouter configurado e pronto", timeline.Success)
	c.setStatus(statusFallbackReady)
	return nil
}
