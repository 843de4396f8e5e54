// Package radio define la frontera con el enlace inalámbrico: canales de
// notificación, el canal de control entrante y los callbacks de conexión.
package radio

import (
	"context"
	"errors"
)

// Channel identifica una característica de salida.
type Channel uint8

const (
	ChannelSensor Channel = iota
	ChannelGPS
	ChannelStatus
	// ChannelConfig es a la vez notify (respuestas/errores) y write (comandos).
	ChannelConfig
)

var channelNames = [...]string{
	ChannelSensor: "sensor",
	ChannelGPS:    "gps",
	ChannelStatus: "status",
	ChannelConfig: "config",
}

// Channels lista todos los canales en orden.
var Channels = []Channel{ChannelSensor, ChannelGPS, ChannelStatus, ChannelConfig}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return "unknown"
}

var (
	ErrUnknownChannel = errors.New("radio: unknown channel")
	ErrNotConnected   = errors.New("radio: no client connected")
)

// Events recibe los callbacks del transporte. Pueden llegar desde
// goroutines propias del transporte.
type Events interface {
	OnConnect(mtu int)
	OnDisconnect()
	// OnWrite entrega el texto escrito por el cliente en el canal de control.
	OnWrite(data []byte)
}

// Transport es un periférico con cuatro canales de salida y un canal de
// control de entrada. Un solo cliente a la vez.
type Transport interface {
	// Start prepara el transporte y empieza a anunciarse. No bloquea: el
	// trabajo de fondo termina cuando ctx se cancela.
	Start(ctx context.Context, ev Events) error
	// Notify envía un frame opaco por el canal, best-effort.
	Notify(ch Channel, data []byte) error
	// Advertise vuelve a anunciar el periférico tras una desconexión.
	Advertise() error
	HasChannel(ch Channel) bool
}
