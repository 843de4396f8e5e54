// Package dispatcher procesa los comandos que llegan por el canal de
// control: parseo, validación, efecto y respuesta.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sentry-link/internal/codec"
	"sentry-link/internal/observability"
)

// RestartDelay deja salir el acuse de RESET_DEVICE antes de reiniciar.
const RestartDelay = time.Second

// Mensajes de error tal como los ve el cliente.
const (
	MsgInvalidJSON    = "Invalid JSON format"
	MsgMissingCommand = "Missing command field"
	MsgUnknownCommand = "Unknown command type"
	MsgMissingValue   = "Missing value field"
)

// PendingSource entrega el último comando recibido y limpia el lugar.
type PendingSource interface {
	TakePending() ([]byte, bool)
}

// Responder publica las respuestas en el canal de control.
type Responder interface {
	SendError(code codec.ErrorCode, message string)
	SendCommandResponse(raw int64, name string)
}

// ConfigStore persiste los valores recibidos con SET_*.
type ConfigStore interface {
	Set(ctx context.Context, key ConfigKey, value string) error
	Get(ctx context.Context, key ConfigKey) (string, bool, error)
}

// Restarter reinicia el dispositivo. No vuelve.
type Restarter interface {
	Restart()
}

// RestartFunc adapta una función a Restarter.
type RestartFunc func()

func (f RestartFunc) Restart() { f() }

// Calibrator recalibra el sensor de movimiento.
type Calibrator interface {
	Calibrate(ctx context.Context) error
}

type Option func(*Processor)

func WithConfigStore(s ConfigStore) Option { return func(p *Processor) { p.store = s } }
func WithRestarter(r Restarter) Option     { return func(p *Processor) { p.restarter = r } }
func WithCalibrator(c Calibrator) Option   { return func(p *Processor) { p.calibrator = c } }

// WithAfterFunc reemplaza time.AfterFunc (pruebas).
func WithAfterFunc(f func(time.Duration, func())) Option {
	return func(p *Processor) { p.afterFunc = f }
}

func afterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Processor atiende a lo sumo un comando por ciclo.
type Processor struct {
	src        PendingSource
	resp       Responder
	store      ConfigStore
	restarter  Restarter
	calibrator Calibrator
	afterFunc  func(time.Duration, func())
	reg        *registry
	lg         *slog.Logger

	restartOnce sync.Once
}

func NewProcessor(src PendingSource, resp Responder, lg *slog.Logger, opts ...Option) *Processor {
	p := &Processor{
		src:       src,
		resp:      resp,
		afterFunc: afterFunc,
		reg:       newRegistry(),
		lg:        lg.With("component", "dispatcher"),
	}
	for _, o := range opts {
		o(p)
	}
	p.registerBuiltins()
	return p
}

// Register agrega o reemplaza el handler de un código reconocido.
func (p *Processor) Register(h Handler) {
	p.reg.register(h)
}

// Poll toma el comando pendiente, si hay, y produce exactamente una
// respuesta: un error o un command_response.
func (p *Processor) Poll(ctx context.Context) {
	text, ok := p.src.TakePending()
	if !ok {
		return
	}
	p.Handle(ctx, text)
}

// Handle procesa un texto de comando.
func (p *Processor) Handle(ctx context.Context, text []byte) {
	cmd, err := codec.ParseCommand(text)
	switch {
	case errors.Is(err, codec.ErrInvalidJSON):
		p.reject(cmd, "invalid_json", codec.ErrorInvalidData, MsgInvalidJSON, err)
		return
	case errors.Is(err, codec.ErrMissingCommand):
		p.reject(cmd, "missing_command", codec.ErrorInvalidCommand, MsgMissingCommand, err)
		return
	case err != nil:
		p.reject(cmd, "unknown_command", codec.ErrorInvalidCommand, MsgUnknownCommand, err)
		return
	}

	h, ok := p.reg.get(cmd.Code)
	if !ok {
		p.reject(cmd, "unknown_command", codec.ErrorInvalidCommand, MsgUnknownCommand, codec.ErrUnknownCommand)
		return
	}
	if h.NeedsValue && !cmd.HasValue {
		p.reject(cmd, "missing_value", codec.ErrorInvalidData, MsgMissingValue, codec.ErrMissingValue)
		return
	}

	if h.Run != nil {
		if err := h.Run(ctx, cmd); err != nil {
			p.lg.Error("command effect failed", "cmd", cmd.Code.String(), "err", err)
		}
	}

	p.resp.SendCommandResponse(cmd.Raw, cmd.Code.String())
	observability.Commands.WithLabelValues(cmd.Code.String(), "ok").Inc()
	p.lg.Info("command processed", "cmd", cmd.Code.String(), "code", cmd.Raw)
}

func (p *Processor) reject(cmd codec.Command, outcome string, code codec.ErrorCode, msg string, err error) {
	p.resp.SendError(code, msg)
	observability.Commands.WithLabelValues(cmd.Code.String(), outcome).Inc()
	p.lg.Warn("command rejected", "reason", msg, "error_code", code.String(), "err", err)
}

func (p *Processor) saveConfig(ctx context.Context, key ConfigKey, value string) error {
	if p.store == nil {
		p.lg.Warn("no config store, value discarded", "key", string(key))
		return nil
	}
	if prev, ok, err := p.store.Get(ctx, key); err == nil && ok && prev == value {
		p.lg.Info("config unchanged", "key", string(key))
		return nil
	}
	if err := p.store.Set(ctx, key, value); err != nil {
		observability.ConfigStoreErrors.Inc()
		return err
	}
	p.lg.Info("config updated", "key", string(key))
	return nil
}

// scheduleRestart programa un único reinicio tras RestartDelay.
func (p *Processor) scheduleRestart() {
	if p.restarter == nil {
		p.lg.Warn("reset requested but no restarter configured")
		return
	}
	p.restartOnce.Do(func() {
		p.lg.Warn("device restart scheduled", "delay", RestartDelay)
		p.afterFunc(RestartDelay, p.restarter.Restart)
	})
}
