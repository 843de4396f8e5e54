package ble

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/godbus/dbus/v5"

	"sentry-link/internal/codec"
	"sentry-link/internal/radio"
)

type fakeChar struct {
	onWrite func([]byte)
	echo    bool
	writes  [][]byte
}

func (c *fakeChar) Write(p []byte) (int, error) {
	c.writes = append(c.writes, append([]byte(nil), p...))
	if c.echo && c.onWrite != nil {
		c.onWrite(p)
	}
	return len(p), nil
}

type fakeStack struct {
	chars      map[radio.Channel]*fakeChar
	advertised int
	onConnect  func(addr string, connected bool)
}

func (s *fakeStack) Enable() error { return nil }

func (s *fakeStack) Register(onWrite func([]byte)) (map[radio.Channel]characteristic, error) {
	s.chars = make(map[radio.Channel]*fakeChar)
	out := make(map[radio.Channel]characteristic)
	for _, ch := range radio.Channels {
		// como BlueZ, la escritura local vuelve por el WriteEvent de config
		c := &fakeChar{echo: ch == radio.ChannelConfig, onWrite: onWrite}
		s.chars[ch] = c
		out[ch] = c
	}
	return out, nil
}

func (s *fakeStack) Advertise(string) error { s.advertised++; return nil }
func (s *fakeStack) StopAdvertising() error { return nil }

func (s *fakeStack) OnConnect(fn func(string, bool)) { s.onConnect = fn }

type fakePresence struct {
	fn func(addr string, connected bool)
}

func (p *fakePresence) Watch(_ context.Context, fn func(string, bool)) error {
	p.fn = fn
	return nil
}

type recorder struct {
	connects    []int
	disconnects int
	writes      []string
}

func (r *recorder) OnConnect(mtu int) { r.connects = append(r.connects, mtu) }
func (r *recorder) OnDisconnect()     { r.disconnects++ }
func (r *recorder) OnWrite(b []byte)  { r.writes = append(r.writes, string(b)) }

func newTestPeripheral(t *testing.T) (*Peripheral, *fakeStack, *fakePresence, *recorder) {
	t.Helper()
	st := &fakeStack{}
	pr := &fakePresence{}
	p := newPeripheral("Sentry", st, pr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &recorder{}
	if err := p.Start(context.Background(), rec); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return p, st, pr, rec
}

func TestPeripheralPresenceDrivesSession(t *testing.T) {
	p, st, pr, rec := newTestPeripheral(t)
	if st.advertised != 1 {
		t.Fatalf("advertised = %d, want 1", st.advertised)
	}

	if err := p.Notify(radio.ChannelSensor, []byte("x")); !errors.Is(err, radio.ErrNotConnected) {
		t.Fatalf("Notify before connect error = %v, want ErrNotConnected", err)
	}

	pr.fn("/org/bluez/hci0/dev_AA", true)
	if len(rec.connects) != 1 || rec.connects[0] != codec.RequestedMTU {
		t.Fatalf("connects = %v, want [%d]", rec.connects, codec.RequestedMTU)
	}
	if err := p.Notify(radio.ChannelSensor, []byte("a")); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got := st.chars[radio.ChannelSensor].writes; len(got) != 1 || string(got[0]) != "a" {
		t.Errorf("sensor writes = %q", got)
	}

	// una segunda central no cambia la sesión
	pr.fn("/org/bluez/hci0/dev_BB", true)
	pr.fn("/org/bluez/hci0/dev_BB", false)
	if len(rec.connects) != 1 || rec.disconnects != 0 {
		t.Fatalf("events after second central = %+v", rec)
	}

	pr.fn("/org/bluez/hci0/dev_AA", false)
	if rec.disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", rec.disconnects)
	}
	if err := p.Notify(radio.ChannelSensor, []byte("y")); !errors.Is(err, radio.ErrNotConnected) {
		t.Errorf("Notify after disconnect error = %v", err)
	}

	if err := p.Advertise(); err != nil || st.advertised != 2 {
		t.Errorf("Advertise() = %v, advertised = %d", err, st.advertised)
	}
}

func TestPeripheralStackConnectHandler(t *testing.T) {
	_, st, pr, rec := newTestPeripheral(t)
	st.onConnect("AA:BB", true)
	// BlueZ y la pila pueden reportar la misma central
	pr.fn("/org/bluez/hci0/dev_CC", true)
	st.onConnect("AA:BB", false)
	if len(rec.connects) != 1 || rec.disconnects != 1 {
		t.Errorf("events = %+v", rec)
	}
}

func TestPeripheralIgnoresOwnConfigNotify(t *testing.T) {
	p, st, pr, rec := newTestPeripheral(t)
	pr.fn("dev", true)

	resp := []byte(`{"type":"command_response","sequence":1}`)
	if err := p.Notify(radio.ChannelConfig, resp); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(rec.writes) != 0 {
		t.Fatalf("own notify surfaced as write: %q", rec.writes)
	}

	st.chars[radio.ChannelConfig].onWrite([]byte(`{"command":1}`))
	if len(rec.writes) != 1 || rec.writes[0] != `{"command":1}` {
		t.Errorf("writes = %q", rec.writes)
	}
}

func TestPeripheralUnknownChannel(t *testing.T) {
	p, _, pr, _ := newTestPeripheral(t)
	pr.fn("dev", true)
	if err := p.Notify(radio.Channel(99), []byte("x")); !errors.Is(err, radio.ErrUnknownChannel) {
		t.Errorf("Notify(99) error = %v, want ErrUnknownChannel", err)
	}
}

func propsChanged(iface string, props map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{Name: propertiesChanged, Body: []interface{}{iface, props, []string{}}}
}

func TestDeviceConnected(t *testing.T) {
	tests := []struct {
		name      string
		sig       *dbus.Signal
		connected bool
		ok        bool
	}{
		{"connected", propsChanged(bluezDevice, map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}), true, true},
		{"disconnected", propsChanged(bluezDevice, map[string]dbus.Variant{"Connected": dbus.MakeVariant(false)}), false, true},
		{"other property", propsChanged(bluezDevice, map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-40))}), false, false},
		{"other interface", propsChanged("org.bluez.Adapter1", map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}), false, false},
		{"nil", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connected, ok := deviceConnected(tt.sig)
			if connected != tt.connected || ok != tt.ok {
				t.Errorf("deviceConnected() = %v, %v, want %v, %v", connected, ok, tt.connected, tt.ok)
			}
		})
	}
}
