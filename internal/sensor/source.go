package sensor

import (
	"context"
	"math"
	"time"

	"sentry-link/internal/codec"
)

// Sample es una lectura cruda del acelerómetro, normalizada a g. Valid es
// false cuando el bus no devolvió datos; los ejes valen 0 en ese caso.
type Sample struct {
	AX, AY, AZ float64
	Valid      bool
}

func (s Sample) finite() bool {
	return isFinite(s.AX) && isFinite(s.AY) && isFinite(s.AZ)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// MotionSource entrega muestras del acelerómetro.
type MotionSource interface {
	Read(ctx context.Context) (Sample, error)
}

// PositionSource entrega la última posición conocida del GPS.
type PositionSource interface {
	Position(ctx context.Context) (codec.PositionFix, error)
}

// Reader arma lecturas completas a partir de una MotionSource.
type Reader struct {
	src       MotionSource
	tracker   *Tracker
	threshold float64
	now       func() time.Time
}

func NewReader(src MotionSource, threshold float64) *Reader {
	if threshold <= 0 {
		threshold = DefaultTiltThreshold
	}
	return &Reader{
		src:       src,
		tracker:   NewTracker(true, time.Now()),
		threshold: threshold,
		now:       time.Now,
	}
}

// Read lee una muestra y devuelve la lectura con ángulos y estado. Un error
// de la fuente o un eje no finito cuenta como lectura inválida.
func (r *Reader) Read(ctx context.Context) codec.SensorReading {
	s, err := r.src.Read(ctx)
	if err != nil || !s.finite() {
		s = Sample{}
	}
	now := r.now()
	r.tracker.Observe(s.Valid, now)
	health := r.tracker.Health(now)

	out := codec.SensorReading{
		AX:            s.AX,
		AY:            s.AY,
		AZ:            s.AZ,
		StatusCode:    int(health),
		StatusMessage: health.Message(),
	}
	if s.Valid {
		out.Roll, out.Pitch = Tilt(s.AX, s.AY, s.AZ)
		out.TiltDetected = TiltExceeded(out.Roll, out.Pitch, r.threshold)
	}
	return out
}

// Calibrate reinicia el seguimiento de salud y, si la fuente lo soporta,
// la recalibra. Implementa dispatcher.Calibrator.
func (r *Reader) Calibrate(ctx context.Context) error {
	if c, ok := r.src.(interface {
		Calibrate(context.Context) error
	}); ok {
		if err := c.Calibrate(ctx); err != nil {
			return err
		}
	}
	r.tracker.Reset(r.now())
	return nil
}
