// Package stub es un transporte en memoria para pruebas y el modo sim.
package stub

import (
	"context"
	"errors"
	"sync"

	"sentry-link/internal/radio"
)

// Frame es un envío registrado por el driver.
type Frame struct {
	Channel radio.Channel
	Data    []byte
}

// Driver implementa radio.Transport sin hardware. Los envíos quedan en un
// ring buffer acotado que se inspecciona con GetTxLog.
type Driver struct {
	mu          sync.Mutex
	ev          radio.Events
	connected   bool
	channels    map[radio.Channel]bool
	tx          ringBuffer
	advertising int
	advErr      error
}

// New crea un driver que expone los canales dados (todos si no se indica
// ninguno).
func New(channels ...radio.Channel) *Driver {
	if len(channels) == 0 {
		channels = radio.Channels
	}
	d := &Driver{channels: make(map[radio.Channel]bool, len(channels))}
	for _, ch := range channels {
		d.channels[ch] = true
	}
	return d
}

func (d *Driver) Start(_ context.Context, ev radio.Events) error {
	if ev == nil {
		return errors.New("stub: nil events")
	}
	d.mu.Lock()
	d.ev = ev
	d.advertising++
	d.mu.Unlock()
	return nil
}

func (d *Driver) HasChannel(ch radio.Channel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channels[ch]
}

func (d *Driver) Notify(ch radio.Channel, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.channels[ch] {
		return radio.ErrUnknownChannel
	}
	if !d.connected {
		return radio.ErrNotConnected
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	d.tx.push(Frame{Channel: ch, Data: frame})
	return nil
}

func (d *Driver) Advertise() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.advErr != nil {
		return d.advErr
	}
	d.advertising++
	return nil
}

// FailAdvertise hace que Advertise devuelva err hasta que se llame con nil.
func (d *Driver) FailAdvertise(err error) {
	d.mu.Lock()
	d.advErr = err
	d.mu.Unlock()
}

// Advertisements cuenta los anuncios exitosos, incluido el de Start.
func (d *Driver) Advertisements() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.advertising
}

// Connect simula un cliente que se conecta con el MTU dado.
func (d *Driver) Connect(mtu int) {
	d.mu.Lock()
	d.connected = true
	ev := d.ev
	d.mu.Unlock()
	if ev != nil {
		ev.OnConnect(mtu)
	}
}

func (d *Driver) Disconnect() {
	d.mu.Lock()
	d.connected = false
	ev := d.ev
	d.mu.Unlock()
	if ev != nil {
		ev.OnDisconnect()
	}
}

// InjectWrite simula una escritura del cliente en el canal de control.
func (d *Driver) InjectWrite(data []byte) {
	d.mu.Lock()
	ev := d.ev
	d.mu.Unlock()
	if ev != nil {
		ev.OnWrite(append([]byte(nil), data...))
	}
}

// GetTxLog devuelve una copia de los frames enviados, del más viejo al más
// nuevo.
func (d *Driver) GetTxLog() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx.snapshot()
}

// ClearTxLog vacía el registro de envíos.
func (d *Driver) ClearTxLog() {
	d.mu.Lock()
	d.tx = ringBuffer{}
	d.mu.Unlock()
}

const ringCapacity = 256

type ringBuffer struct {
	data       [ringCapacity]Frame
	head, tail int // head = más viejo, tail = próximo push
	count      int
}

func (rb *ringBuffer) push(f Frame) {
	if rb.count == ringCapacity {
		// lleno: se pisa el más viejo
		rb.data[rb.tail] = Frame{}
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = f
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) snapshot() []Frame {
	out := make([]Frame, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		f := rb.data[i]
		out[c] = Frame{Channel: f.Channel, Data: append([]byte(nil), f.Data...)}
		i = (i + 1) % ringCapacity
	}
	return out
}
