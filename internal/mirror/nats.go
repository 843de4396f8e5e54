// Package mirror copia los frames transmitidos a NATS para que un gateway
// pueda observar el enlace sin estar conectado por radio.
package mirror

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sentry-link/internal/link"
	"sentry-link/internal/radio"
)

// SubjectPrefix antecede al nombre del canal: sentry.uplink.sensor, etc.
const SubjectPrefix = "sentry.uplink."

// Publisher es la parte de *nats.Conn que usa el tap.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSTap implementa link.Tap. Sólo reenvía frames entregados al
// transporte; los descartados quedan en logs y métricas.
type NATSTap struct {
	pub    Publisher
	device string
	lg     *slog.Logger
}

func NewNATSTap(pub Publisher, device string, lg *slog.Logger) *NATSTap {
	return &NATSTap{pub: pub, device: device, lg: lg.With("component", "mirror")}
}

// Connect abre la conexión a NATS con reconexión infinita.
func Connect(url, device string, lg *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("sentryd-"+device),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				lg.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			lg.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

// Subject devuelve el subject de un canal.
func Subject(ch radio.Channel) string {
	return SubjectPrefix + ch.String()
}

func (t *NATSTap) Tap(ch radio.Channel, data []byte, outcome link.Outcome) {
	if outcome == link.OutcomeRefused {
		return
	}
	msg := &nats.Msg{
		Subject: Subject(ch),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Sentry-Device", t.device)
	msg.Header.Set("Sentry-Outcome", outcome.String())
	if p, ok := t.pub.(interface{ PublishMsg(*nats.Msg) error }); ok {
		if err := p.PublishMsg(msg); err != nil {
			t.lg.Debug("mirror publish failed", "subject", msg.Subject, "err", err)
		}
		return
	}
	if err := t.pub.Publish(msg.Subject, data); err != nil {
		t.lg.Debug("mirror publish failed", "subject", msg.Subject, "err", err)
	}
}
