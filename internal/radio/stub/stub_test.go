package stub

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sentry-link/internal/radio"
)

type recorder struct {
	connects    []int
	disconnects int
	writes      []string
}

func (r *recorder) OnConnect(mtu int) { r.connects = append(r.connects, mtu) }
func (r *recorder) OnDisconnect()     { r.disconnects++ }
func (r *recorder) OnWrite(b []byte)  { r.writes = append(r.writes, string(b)) }

func TestDriverNotify(t *testing.T) {
	d := New(radio.ChannelSensor, radio.ChannelConfig)
	rec := &recorder{}
	if err := d.Start(context.Background(), rec); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := d.Notify(radio.ChannelSensor, []byte("x")); !errors.Is(err, radio.ErrNotConnected) {
		t.Fatalf("Notify before connect error = %v, want ErrNotConnected", err)
	}

	d.Connect(185)
	if err := d.Notify(radio.ChannelGPS, []byte("x")); !errors.Is(err, radio.ErrUnknownChannel) {
		t.Fatalf("Notify(gps) error = %v, want ErrUnknownChannel", err)
	}
	if err := d.Notify(radio.ChannelSensor, []byte("a")); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := d.Notify(radio.ChannelConfig, []byte("b")); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	log := d.GetTxLog()
	if len(log) != 2 || log[0].Channel != radio.ChannelSensor || string(log[1].Data) != "b" {
		t.Fatalf("GetTxLog() = %+v", log)
	}

	d.InjectWrite([]byte(`{"command":1}`))
	d.Disconnect()
	if len(rec.connects) != 1 || rec.connects[0] != 185 || rec.disconnects != 1 || len(rec.writes) != 1 {
		t.Errorf("events = %+v", rec)
	}
}

func TestDriverRingOverwritesOldest(t *testing.T) {
	d := New()
	_ = d.Start(context.Background(), &recorder{})
	d.Connect(23)
	for i := 0; i < ringCapacity+10; i++ {
		_ = d.Notify(radio.ChannelStatus, []byte(fmt.Sprint(i)))
	}
	log := d.GetTxLog()
	if len(log) != ringCapacity {
		t.Fatalf("len = %d, want %d", len(log), ringCapacity)
	}
	if got := string(log[0].Data); got != "10" {
		t.Errorf("oldest = %s, want 10", got)
	}
}

func TestDriverAdvertise(t *testing.T) {
	d := New()
	_ = d.Start(context.Background(), &recorder{})
	d.FailAdvertise(errors.New("busy"))
	if err := d.Advertise(); err == nil {
		t.Fatal("Advertise() want error")
	}
	d.FailAdvertise(nil)
	if err := d.Advertise(); err != nil {
		t.Fatalf("Advertise() error = %v", err)
	}
	if got := d.Advertisements(); got != 2 {
		t.Errorf("Advertisements() = %d, want 2", got)
	}
}
