package session

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/fallback"
	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/search"
	"github.com/teslashibe/go-analyst/pkg/timeline"
	"github.com/teslashibe/go-analyst/pkg/transport"
)

const (
	statusRecording         = "🔴 Gravando... Fale agora."
	statusRecordingFallback = "🔴 Gravando... Fale agora (Fallback)."
	statusStopped           = "Gravação parada. Clique para começar de novo."
)

func (c *Controller) startRecording() {
	if c.state.Recording {
		return
	}
	if c.capture == nil {
		c.setError("Erro ao iniciar gravação: nenhum microfone configurado")
		return
	}
	fallbackMode := c.state.Provider == ProviderFallback
	if !fallbackMode && (c.ch == nil || !c.ch.IsOpen() || c.state.Conn != StateConnected) {
		c.setError("Assistente não conectado. Aguarde a conexão ou clique em reiniciar.")
		return
	}

	c.update(func(s *State) { s.SearchResults = nil })
	c.setStatus("Pedindo acesso ao microfone...")

	var fn audioio.FrameFunc
	if fallbackMode {
		c.recorder.Start()
		fn = c.recorder.Write
	} else {
		fn = c.streamTo(c.gen, c.ch)
	}

	if err := c.capture.Start(c.ctx, fn); err != nil {
		c.recorder.Stop()
		msg := err.Error()
		if errors.Is(err, audioio.ErrPermissionDenied) {
			msg = "permissão de microfone negada"
		}
		c.setError("Erro ao iniciar gravação: " + msg)
		return
	}

	c.update(func(s *State) { s.Recording = true })
	c.setStatus("Acesso ao microfone concedido. Iniciando captura...")
	if fallbackMode {
		c.setStatus(statusRecordingFallback)
		c.log("Gravação iniciada no modo fallback.", timeline.Record)
		return
	}
	c.setStatus(statusRecording)
	c.log("Gravação iniciada.", timeline.Record)
}

// streamTo returns the frame callback of a primary recording. It runs on
// the capture goroutine: frames are dropped during a search, and the first
// send failure is reported back once.
func (c *Controller) streamTo(gen uint64, ch transport.Channel) audioio.FrameFunc {
	var failed atomic.Bool
	return func(chunk audioio.AudioChunk) {
		if c.searching.Load() || failed.Load() {
			return
		}
		if err := ch.Send(transport.AudioFrame(chunk.Bytes())); err != nil {
			if failed.CompareAndSwap(false, true) {
				c.dispatch(func() { c.onSendFailure(gen, err) })
			}
		}
	}
}

func (c *Controller) onSendFailure(gen uint64, err error) {
	if gen != c.gen {
		return
	}
	c.stopRecording()
	c.flushPlayback()
	c.update(func(s *State) { s.Conn = StateError })

	msg := strings.ToLower(err.Error())
	if errors.Is(err, transport.ErrNotConnected) ||
		strings.Contains(msg, "websocket") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "closed") {
		c.retireChannel()
		c.reconnectOr(errConnectionLost)
		return
	}
	c.setError("Erro ao enviar áudio: " + err.Error())
}

// stopRecording releases the microphone. A fallback recording is handed to
// the recognizer.
func (c *Controller) stopRecording() {
	if !c.state.Recording {
		return
	}
	c.setStatus("Parando gravação...")
	c.update(func(s *State) { s.Recording = false })
	if err := c.capture.Stop(); err != nil {
		c.logger.Debug("stop capture", "error", err)
	}

	if c.recorder.Active() {
		if chunk, err := c.recorder.Stop(); err == nil && c.fb != nil {
			c.recognize(chunk)
		}
	}

	c.log("Gravação parada.", timeline.Record)
	c.setStatus(statusStopped)
}

func (c *Controller) play(pcm []byte, rate int) {
	if c.player == nil || len(pcm) == 0 {
		return
	}
	if _, err := c.player.EnqueuePCM(c.ctx, pcm, rate); err != nil {
		c.logger.Warn("playback failed", "error", err)
	}
}

func (c *Controller) flushPlayback() {
	if c.player == nil {
		return
	}
	if err := c.player.Flush(); err != nil {
		c.logger.Debug("flush playback", "error", err)
	}
}

func (c *Controller) playCue() {
	if !c.cfg.SearchCue {
		return
	}
	cue := audioio.Tone(protocol.OutputSampleRate, 100*time.Millisecond, 0.1, 800, 1000, 600)
	c.play(audioio.SamplesToBytes(cue), protocol.OutputSampleRate)
}

func (c *Controller) onProviderResponse(msg *protocol.Inbound) {
	if msg.TurnComplete {
		defer c.scanner.Reset()
	}

	if msg.Text != "" {
		c.log(msg.Text, timeline.Info)
		switch query, hit := c.scanner.Feed(msg.Text); hit {
		case search.Pending:
			c.holdSearch()
		case search.Complete:
			c.startSearch(query)
			return
		}
	}
	if msg.TurnComplete {
		if query, ok := c.scanner.Flush(); ok {
			c.startSearch(query)
			return
		}
		c.releaseHeldSearch()
	}

	if c.state.Search != nil {
		return
	}

	if msg.HasAudio() {
		pcm, err := msg.DecodeAudio()
		if err != nil {
			c.logger.Warn("bad audio payload", "error", err)
		} else {
			c.play(pcm, protocol.OutputSampleRate)
		}
	}

	if msg.Interrupted {
		c.flushPlayback()
	}
}

// sendTurn injects a text turn into whichever provider is active.
func (c *Controller) sendTurn(text string) {
	if c.state.Provider == ProviderFallback {
		c.sendFallbackText(text)
		return
	}
	if c.ch == nil || !c.ch.IsOpen() {
		c.logger.Warn("turn dropped: channel not open", "chars", len(text))
		return
	}
	if err := c.ch.Send(transport.TextFrame(text)); err != nil {
		c.logger.Warn("send turn failed", "error", err)
	}
}

func (c *Controller) recognize(chunk audioio.AudioChunk) {
	fb, seq, ctx := c.fb, c.turnSeq, c.ctx
	c.setStatus("🎤 Processando fala... (Fallback)")
	go func() {
		text, err := fb.Recognize(ctx, chunk)
		c.dispatch(func() {
			if seq != c.turnSeq {
				return
			}
			if err != nil {
				if errors.Is(err, fallback.ErrRecognitionUnavailable) {
					c.setError("Reconhecimento de fala não disponível neste dispositivo.")
					return
				}
				c.setError("Erro no reconhecimento de fala: " + err.Error())
				return
			}
			c.log("Fala reconhecida: "+text, timeline.Process)
			c.sendFallbackText(text)
		})
	}()
}

func (c *Controller) sendFallbackText(text string) {
	if c.fb == nil {
		return
	}
	fb, seq, ctx := c.fb, c.turnSeq, c.ctx
	c.setStatus("Enviando mensagem para OpenRouter...")
	go func() {
		reply, err := fb.Respond(ctx, text)
		c.dispatch(func() {
			if seq != c.turnSeq {
				return
			}
			c.onFallbackReply(reply, err)
		})
	}()
}

func (c *Controller) onFallbackReply(reply string, err error) {
	if err != nil {
		c.setError("Erro ao comunicar com OpenRouter: " + err.Error())
		c.log("Erro no OpenRouter: "+err.Error(), timeline.Error)
		return
	}

	c.log(reply, timeline.Info)
	if query, ok := c.parser.Parse(reply); ok {
		c.startSearch(query)
		return
	}

	fb, seq, ctx := c.fb, c.turnSeq, c.ctx
	go func() {
		audio, err := fb.Speak(ctx, reply)
		c.dispatch(func() {
			if seq != c.turnSeq {
				return
			}
			if err != nil {
				c.logger.Warn("speech synthesis failed", "error", err)
				return
			}
			if audio != nil {
				c.play(audio.Audio, audio.Format.SampleRate)
			}
		})
	}()

	c.setStatus(statusFallbackReady)
	c.log("Resposta recebida do OpenRouter.", timeline.Success)
}
