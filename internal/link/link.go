// Package link es el núcleo del enlace: sesión, transmisión de mensajes y
// ciclo de vida de la conexión.
package link

import (
	"log/slog"
	"time"

	"sentry-link/internal/codec"
	"sentry-link/internal/observability"
	"sentry-link/internal/radio"
)

// StateObserver recibe cada cambio de conexión (health gRPC, por ejemplo).
type StateObserver interface {
	LinkStateChanged(ConnectionState)
}

// Link une la sesión, el builder y el transmitter. Implementa radio.Events
// y publica los cinco tipos de mensaje.
type Link struct {
	sess      *Session
	b         *codec.Builder
	tx        *Transmitter
	observers []StateObserver
	lg        *slog.Logger
}

func New(sess *Session, tx *Transmitter, clock codec.Clock, lg *slog.Logger, observers ...StateObserver) *Link {
	return &Link{
		sess:      sess,
		b:         codec.NewBuilder(sess.Sequencer(), clock),
		tx:        tx,
		observers: observers,
		lg:        lg.With("component", "link"),
	}
}

func (l *Link) Session() *Session { return l.sess }

// -------------------------------------------------------------------
//                     CALLBACKS DEL TRANSPORTE
// -------------------------------------------------------------------

func (l *Link) OnConnect(mtu int) {
	l.sess.Connect(mtu)
	observability.LinkConnections.Inc()
	l.lg.Info("client connected", "mtu", l.sess.MTU())
	l.notify(StateConnected)
}

func (l *Link) OnDisconnect() {
	info := l.sess.Info()
	if l.sess.Disconnect() {
		l.lg.Warn("pending command dropped on disconnect")
	}
	observability.LinkDisconnects.Inc()
	attrs := []any{"epoch", info.Epoch, "last_sequence", info.Sequence}
	if !info.ConnectedAt.IsZero() {
		attrs = append(attrs, "connected_for", time.Since(info.ConnectedAt).Round(time.Millisecond).String())
	}
	l.lg.Info("client disconnected", attrs...)
	l.notify(StateDisconnected)
}

func (l *Link) OnWrite(data []byte) {
	if len(data) == 0 {
		return
	}
	if l.sess.SetPending(data) {
		l.lg.Warn("pending command overwritten before processing")
	}
	l.lg.Debug("command received", "size", len(data))
}

func (l *Link) notify(s ConnectionState) {
	for _, o := range l.observers {
		o.LinkStateChanged(s)
	}
}

// -------------------------------------------------------------------
//                          PUBLICACIÓN
// -------------------------------------------------------------------

// Sin cliente no se arma nada: la secuencia no avanza.
func (l *Link) send(ch radio.Channel, kind codec.Kind, build func() ([]byte, error)) {
	if !l.sess.Connected() {
		return
	}
	text, err := build()
	if err != nil {
		l.lg.Error("build failed", "type", string(kind), "err", err)
		return
	}
	l.tx.Send(ch, text)
}

func (l *Link) SendSensorData(r codec.SensorReading) {
	l.send(radio.ChannelSensor, codec.KindSensorData, func() ([]byte, error) { return l.b.SensorData(r) })
}

func (l *Link) SendGPSData(p codec.PositionFix) {
	l.send(radio.ChannelGPS, codec.KindGPSData, func() ([]byte, error) { return l.b.GPSData(p) })
}

func (l *Link) SendDeviceStatus(s codec.DeviceStatus) {
	l.send(radio.ChannelStatus, codec.KindDeviceStatus, func() ([]byte, error) { return l.b.DeviceStatus(s) })
}

func (l *Link) SendError(code codec.ErrorCode, message string) {
	l.send(radio.ChannelConfig, codec.KindError, func() ([]byte, error) { return l.b.Error(code, message) })
}

func (l *Link) SendCommandResponse(raw int64, name string) {
	l.send(radio.ChannelConfig, codec.KindCommandResponse, func() ([]byte, error) { return l.b.CommandResponse(raw, name) })
}
