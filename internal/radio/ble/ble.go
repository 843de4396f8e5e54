// Package ble implementa radio.Transport como periférico GATT.
package ble

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sentry-link/internal/codec"
	"sentry-link/internal/radio"
)

// characteristic es el handle de una característica registrada.
type characteristic interface {
	Write(p []byte) (int, error)
}

// stack es la parte de la pila BLE que usa Peripheral.
type stack interface {
	Enable() error
	// Register publica el servicio y devuelve un handle por canal.
	Register(onWrite func(value []byte)) (map[radio.Channel]characteristic, error)
	Advertise(name string) error
	StopAdvertising() error
	// OnConnect instala el callback de conexión cuando la pila lo soporta.
	OnConnect(fn func(addr string, connected bool))
}

// presence informa conexiones de centrales que la pila no reporta (BlueZ).
type presence interface {
	Watch(ctx context.Context, fn func(addr string, connected bool)) error
}

type Peripheral struct {
	name     string
	stack    stack
	presence presence
	lg       *slog.Logger

	// serializa Notify; ver echo
	notifyMu sync.Mutex

	mu      sync.Mutex
	ev      radio.Events
	chars   map[radio.Channel]characteristic
	central string
	echo    []byte
}

func New(name string, lg *slog.Logger) *Peripheral {
	return newPeripheral(name, newTinygoStack(), bluezPresence{}, lg)
}

func newPeripheral(name string, st stack, pr presence, lg *slog.Logger) *Peripheral {
	return &Peripheral{
		name:     name,
		stack:    st,
		presence: pr,
		lg:       lg.With("component", "ble"),
		chars:    make(map[radio.Channel]characteristic, len(radio.Channels)),
	}
}

// Start habilita el adaptador, registra el servicio y empieza a anunciarse.
func (p *Peripheral) Start(ctx context.Context, ev radio.Events) error {
	if err := p.stack.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	p.mu.Lock()
	p.ev = ev
	p.mu.Unlock()

	p.stack.OnConnect(p.centralChanged)
	if p.presence != nil {
		if err := p.presence.Watch(ctx, p.centralChanged); err != nil {
			p.lg.Warn("central presence unavailable", "err", err)
		}
	}

	chars, err := p.stack.Register(p.written)
	if err != nil {
		return fmt.Errorf("ble: add service: %w", err)
	}
	p.mu.Lock()
	p.chars = chars
	p.mu.Unlock()

	if err := p.Advertise(); err != nil {
		return err
	}
	p.lg.Info("advertising", "name", p.name, "service", ServiceUUID.String())

	go func() {
		<-ctx.Done()
		_ = p.stack.StopAdvertising()
	}()
	return nil
}

// centralChanged atiende a una sola central: la primera que conecta es la
// actual y solo su desconexión cierra la sesión.
func (p *Peripheral) centralChanged(addr string, connected bool) {
	p.mu.Lock()
	ev := p.ev
	switch {
	case connected && p.central == "":
		p.central = addr
	case !connected && p.central == addr:
		p.central = ""
	default:
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if ev == nil {
		return
	}
	if connected {
		p.lg.Info("central connected", "addr", addr)
		// el MTU lo negocia la pila; se asume el solicitado
		ev.OnConnect(codec.RequestedMTU)
		return
	}
	p.lg.Info("central disconnected", "addr", addr)
	ev.OnDisconnect()
}

func (p *Peripheral) written(value []byte) {
	p.mu.Lock()
	ev := p.ev
	// BlueZ reporta nuestras propias notificaciones como escrituras
	self := p.echo != nil && bytes.Equal(value, p.echo)
	p.mu.Unlock()
	if self || ev == nil {
		return
	}
	ev.OnWrite(append([]byte(nil), value...))
}

func (p *Peripheral) HasChannel(ch radio.Channel) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.chars[ch]
	return ok
}

func (p *Peripheral) Notify(ch radio.Channel, data []byte) error {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	c, ok := p.chars[ch]
	connected := p.central != ""
	if ok && connected && ch == radio.ChannelConfig {
		p.echo = data
	}
	p.mu.Unlock()
	if !ok {
		return radio.ErrUnknownChannel
	}
	if !connected {
		return radio.ErrNotConnected
	}

	_, err := c.Write(data)

	p.mu.Lock()
	p.echo = nil
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ble: notify %s: %w", ch, err)
	}
	return nil
}

func (p *Peripheral) Advertise() error {
	if err := p.stack.Advertise(p.name); err != nil {
		return fmt.Errorf("ble: start advertising: %w", err)
	}
	return nil
}
