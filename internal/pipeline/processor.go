// Package pipeline es el ciclo principal del dispositivo: lee sensores,
// publica lecturas y hace avanzar el ciclo de vida del enlace.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"sentry-link/internal/codec"
	"sentry-link/internal/sensor"
)

// Publisher publica las lecturas periódicas (link.Link).
type Publisher interface {
	SendSensorData(codec.SensorReading)
	SendGPSData(codec.PositionFix)
	SendDeviceStatus(codec.DeviceStatus)
}

// Lifecycle avanza un ciclo del enlace (link.Manager).
type Lifecycle interface {
	Tick(ctx context.Context)
}

// MotionReader entrega lecturas ya procesadas (sensor.Reader).
type MotionReader interface {
	Read(ctx context.Context) codec.SensorReading
}

// StatusSource informa conectividad WiFi y batería.
type StatusSource func() (wifiConnected bool, batteryLevel int)

// Intervals controla cada cuánto se publica cada lectura.
type Intervals struct {
	Cycle  time.Duration
	Sensor time.Duration
	GPS    time.Duration
	Status time.Duration
}

// DefaultIntervals son los valores cuando no hay configuración.
var DefaultIntervals = Intervals{
	Cycle:  50 * time.Millisecond,
	Sensor: 100 * time.Millisecond,
	GPS:    time.Second,
	Status: 5 * time.Second,
}

type Runner struct {
	pub    Publisher
	life   Lifecycle
	motion MotionReader
	pos    sensor.PositionSource
	status StatusSource
	iv     Intervals
	lg     *slog.Logger

	lastSensor, lastGPS, lastStatus time.Time
	lastFix                         codec.PositionFix
}

func NewRunner(pub Publisher, life Lifecycle, motion MotionReader, pos sensor.PositionSource, status StatusSource, iv Intervals, lg *slog.Logger) *Runner {
	if iv.Cycle <= 0 {
		iv.Cycle = DefaultIntervals.Cycle
	}
	return &Runner{
		pub:     pub,
		life:    life,
		motion:  motion,
		pos:     pos,
		status:  status,
		iv:      iv,
		lg:      lg.With("component", "pipeline"),
		lastFix: codec.PositionFix{StatusCode: -1},
	}
}

// Run corre el ciclo hasta que ctx se cancela.
func (r *Runner) Run(ctx context.Context) error {
	t := time.NewTicker(r.iv.Cycle)
	defer t.Stop()
	r.lg.Info("main cycle started", "cycle", r.iv.Cycle, "sensor", r.iv.Sensor, "gps", r.iv.GPS, "status", r.iv.Status)
	for {
		select {
		case <-ctx.Done():
			r.lg.Info("main cycle stopped")
			return ctx.Err()
		case now := <-t.C:
			r.Step(ctx, now)
		}
	}
}

func due(last, now time.Time, every time.Duration) bool {
	return every > 0 && (last.IsZero() || now.Sub(last) >= every)
}

// Step es una vuelta del ciclo: primero el enlace (flancos, reanuncio,
// comando pendiente), después las publicaciones que tocan.
func (r *Runner) Step(ctx context.Context, now time.Time) {
	r.life.Tick(ctx)

	if r.motion != nil && due(r.lastSensor, now, r.iv.Sensor) {
		r.lastSensor = now
		r.pub.SendSensorData(r.motion.Read(ctx))
	}

	if r.pos != nil && due(r.lastGPS, now, r.iv.GPS) {
		r.lastGPS = now
		fix, err := r.pos.Position(ctx)
		if err != nil {
			r.lg.Warn("gps read failed", "err", err)
			fix = codec.PositionFix{StatusCode: -1}
		}
		r.lastFix = fix
		r.pub.SendGPSData(fix)
	}

	if due(r.lastStatus, now, r.iv.Status) {
		r.lastStatus = now
		st := codec.DeviceStatus{GPSFix: r.lastFix.Fix}
		if r.status != nil {
			st.WifiConnected, st.BatteryLevel = r.status()
		}
		r.pub.SendDeviceStatus(st)
	}
}
