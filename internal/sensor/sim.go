package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"sentry-link/internal/codec"
)

// SimMotion simula un equipo montado que se balancea suavemente, con un
// sesgo fijo que Calibrate elimina.
type SimMotion struct {
	mu     sync.Mutex
	start  time.Time
	now    func() time.Time
	bias   [3]float64
	offset [3]float64
	rng    *rand.Rand
}

func NewSimMotion(seed uint64) *SimMotion {
	return &SimMotion{
		start: time.Now(),
		now:   time.Now,
		bias:  [3]float64{0.02, -0.03, 0.01},
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *SimMotion) raw() [3]float64 {
	t := s.now().Sub(s.start).Seconds()
	sway := 0.15 * math.Sin(2*math.Pi*t/8)
	noise := func() float64 { return (s.rng.Float64() - 0.5) * 0.01 }
	return [3]float64{
		sway + s.bias[0] + noise(),
		0.5*sway + s.bias[1] + noise(),
		math.Sqrt(math.Max(0, 1-sway*sway)) + s.bias[2] + noise(),
	}
}

func (s *SimMotion) Read(context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.raw()
	return Sample{
		AX:    a[0] - s.offset[0],
		AY:    a[1] - s.offset[1],
		AZ:    a[2] - s.offset[2],
		Valid: true,
	}, nil
}

// Calibrate toma el sesgo actual como cero.
func (s *SimMotion) Calibrate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.bias
	return nil
}

// SimPosition simula un GPS que tarda en conseguir fix y luego deriva
// alrededor de un punto.
type SimPosition struct {
	mu       sync.Mutex
	lat, lon float64
	alt      float64
	reads    int
	fixAfter int
	rng      *rand.Rand
}

func NewSimPosition(lat, lon, alt float64, fixAfter int, seed uint64) *SimPosition {
	return &SimPosition{
		lat:      lat,
		lon:      lon,
		alt:      alt,
		fixAfter: fixAfter,
		rng:      rand.New(rand.NewPCG(seed, seed+1)),
	}
}

func (p *SimPosition) Position(context.Context) (codec.PositionFix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.reads <= p.fixAfter {
		return codec.PositionFix{
			Satellites:    min(p.reads, 3),
			StatusCode:    0,
			StatusMessage: "searching for satellites",
		}, nil
	}
	jitter := func() float64 { return (p.rng.Float64() - 0.5) * 0.0001 }
	return codec.PositionFix{
		Fix:        true,
		Satellites: 7 + p.rng.IntN(4),
		Latitude:   p.lat + jitter(),
		Longitude:  p.lon + jitter(),
		Altitude:   p.alt,
		StatusCode: -1,
	}, nil
}

// SimBattery descarga un punto cada drainEvery lecturas, sin bajar de 5.
type SimBattery struct {
	mu         sync.Mutex
	level      int
	reads      int
	drainEvery int
}

func NewSimBattery(level, drainEvery int) *SimBattery {
	return &SimBattery{level: level, drainEvery: drainEvery}
}

func (b *SimBattery) Level() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.drainEvery > 0 && b.reads%b.drainEvery == 0 && b.level > 5 {
		b.level--
	}
	return b.level
}
