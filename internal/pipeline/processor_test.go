package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"sentry-link/internal/codec"
)

type recordingPublisher struct {
	sensor int
	gps    []codec.PositionFix
	status []codec.DeviceStatus
	order  []string
}

func (p *recordingPublisher) SendSensorData(codec.SensorReading) {
	p.sensor++
	p.order = append(p.order, "sensor")
}

func (p *recordingPublisher) SendGPSData(f codec.PositionFix) {
	p.gps = append(p.gps, f)
	p.order = append(p.order, "gps")
}

func (p *recordingPublisher) SendDeviceStatus(s codec.DeviceStatus) {
	p.status = append(p.status, s)
	p.order = append(p.order, "status")
}

type countingLifecycle struct{ ticks int }

func (l *countingLifecycle) Tick(context.Context) { l.ticks++ }

type fixedMotion struct{}

func (fixedMotion) Read(context.Context) codec.SensorReading {
	return codec.SensorReading{AZ: 1, StatusCode: 2}
}

type fixedPosition struct {
	fix codec.PositionFix
	err error
}

func (p fixedPosition) Position(context.Context) (codec.PositionFix, error) { return p.fix, p.err }

func newTestRunner(pos fixedPosition) (*Runner, *recordingPublisher, *countingLifecycle) {
	pub := &recordingPublisher{}
	life := &countingLifecycle{}
	iv := Intervals{Cycle: 50 * time.Millisecond, Sensor: 100 * time.Millisecond, GPS: time.Second, Status: 5 * time.Second}
	status := func() (bool, int) { return true, 77 }
	r := NewRunner(pub, life, fixedMotion{}, pos, status, iv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return r, pub, life
}

func TestRunnerSchedule(t *testing.T) {
	r, pub, life := newTestRunner(fixedPosition{fix: codec.PositionFix{Fix: true, Satellites: 8, Latitude: 1, Longitude: 2}})
	ctx := context.Background()
	t0 := time.Unix(0, 0)

	// 10 s de ciclos de 50 ms
	for i := 0; i < 200; i++ {
		r.Step(ctx, t0.Add(time.Duration(i)*50*time.Millisecond))
	}

	if life.ticks != 200 {
		t.Errorf("lifecycle ticks = %d, want 200", life.ticks)
	}
	if pub.sensor != 100 {
		t.Errorf("sensor publishes = %d, want 100", pub.sensor)
	}
	if len(pub.gps) != 10 {
		t.Errorf("gps publishes = %d, want 10", len(pub.gps))
	}
	if len(pub.status) != 2 {
		t.Fatalf("status publishes = %d, want 2", len(pub.status))
	}
	want := codec.DeviceStatus{WifiConnected: true, GPSFix: true, BatteryLevel: 77}
	if pub.status[0] != want {
		t.Errorf("status = %+v, want %+v", pub.status[0], want)
	}
	if pub.order[0] != "sensor" || pub.order[1] != "gps" || pub.order[2] != "status" {
		t.Errorf("first cycle order = %v", pub.order[:3])
	}
}

func TestRunnerGPSError(t *testing.T) {
	r, pub, _ := newTestRunner(fixedPosition{err: errors.New("uart timeout")})
	r.Step(context.Background(), time.Unix(0, 0))

	if len(pub.gps) != 1 || pub.gps[0].Fix || pub.gps[0].StatusCode != -1 {
		t.Errorf("gps = %+v, want one no-fix reading", pub.gps)
	}
	if pub.status[0].GPSFix {
		t.Error("status reports gps fix after a failed read")
	}
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	r, _, life := newTestRunner(fixedPosition{})
	r.iv.Cycle = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want DeadlineExceeded", err)
	}
	if life.ticks == 0 {
		t.Error("no cycles ran")
	}
}
