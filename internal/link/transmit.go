package link

import (
	"log/slog"

	"sentry-link/internal/codec"
	"sentry-link/internal/observability"
	"sentry-link/internal/radio"
)

// Outcome es lo que pasó con un frame en el Transmitter.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeDegraded
	OutcomeRefused
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeDegraded:
		return "degraded"
	default:
		return "refused"
	}
}

// Tap observa cada frame que pasa por el Transmitter (journal, espejo NATS).
// Se llama en la goroutine del envío; no debe bloquear.
type Tap interface {
	Tap(ch radio.Channel, data []byte, outcome Outcome)
}

// Transmitter entrega mensajes ya renderizados al transporte respetando el
// tope duro y el presupuesto del MTU actual.
type Transmitter struct {
	tr       radio.Transport
	mtu      func() int
	strategy FrameStrategy
	taps     []Tap
	lg       *slog.Logger
}

func NewTransmitter(tr radio.Transport, sess *Session, strategy FrameStrategy, lg *slog.Logger, taps ...Tap) *Transmitter {
	if strategy == nil {
		strategy = BestEffortSingleFrame{}
	}
	return &Transmitter{
		tr:       tr,
		mtu:      sess.MTU,
		strategy: strategy,
		taps:     taps,
		lg:       lg.With("component", "transmitter"),
	}
}

// Send es best-effort: no devuelve error, cada resultado queda en logs y
// métricas.
func (t *Transmitter) Send(ch radio.Channel, text []byte) {
	if len(text) == 0 || !t.tr.HasChannel(ch) {
		return
	}
	name := ch.String()

	if len(text) > codec.MaxPacketSize {
		t.lg.Error("message exceeds max packet size, dropped",
			"channel", name, "size", len(text), "max", codec.MaxPacketSize)
		observability.FramesRefused.WithLabelValues(name).Inc()
		t.tap(ch, text, OutcomeRefused)
		return
	}

	outcome := OutcomeSent
	mtu := t.mtu()
	if budget := codec.SafeFrameSize(mtu); len(text) > budget {
		if !t.strategy.SendOversize(len(text), budget) {
			t.lg.Warn("message exceeds frame budget, dropped",
				"channel", name, "size", len(text), "budget", budget, "mtu", mtu, "strategy", t.strategy.Name())
			observability.FramesRefused.WithLabelValues(name).Inc()
			t.tap(ch, text, OutcomeRefused)
			return
		}
		t.lg.Warn("message exceeds frame budget, sending as single frame",
			"channel", name, "size", len(text), "budget", budget, "mtu", mtu)
		observability.FramesDegraded.WithLabelValues(name).Inc()
		outcome = OutcomeDegraded
	}

	if err := t.tr.Notify(ch, text); err != nil {
		t.lg.Debug("notify failed", "channel", name, "err", err)
		observability.NotifyErrors.WithLabelValues(name).Inc()
		return
	}
	observability.FramesSent.WithLabelValues(name).Inc()
	observability.FrameBytes.Observe(float64(len(text)))
	t.tap(ch, text, outcome)
}

func (t *Transmitter) tap(ch radio.Channel, data []byte, o Outcome) {
	for _, tp := range t.taps {
		tp.Tap(ch, data, o)
	}
}
