package sensor

import (
	"sync"
	"time"
)

// Health es el código de estado del sensor que viaja en status_code.
type Health int

const (
	HealthNotWorking Health = 0
	HealthUnstable   Health = 1
	HealthTracking   Health = 2
)

func (h Health) Message() string {
	switch h {
	case HealthNotWorking:
		return "[Status: 0] MPU6050 device not working - Check connections"
	case HealthUnstable:
		return "[Status: 1] MPU6050 readings unstable - Check sensor"
	case HealthTracking:
		return "[Status: 2] MPU6050 tracking active"
	default:
		return "[Status: ?] MPU6050 status unknown"
	}
}

const (
	// StaleAfter: sin una lectura válida en este tiempo el sensor no se
	// considera activo.
	StaleAfter = 5 * time.Second
	// MaxConsecutiveFailures lecturas inválidas seguidas marcan el sensor
	// como desconectado.
	MaxConsecutiveFailures = 3
)

// Tracker sigue la salud del sensor a partir del resultado de cada lectura.
type Tracker struct {
	mu        sync.Mutex
	connected bool
	failures  int
	lastValid time.Time
}

// NewTracker arranca en el estado que informó la inicialización del sensor.
func NewTracker(connected bool, now time.Time) *Tracker {
	return &Tracker{connected: connected, lastValid: now}
}

// Observe registra una lectura. Una lectura válida no reconecta un sensor
// dado por perdido; eso requiere Reset.
func (t *Tracker) Observe(valid bool, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return
	}
	if valid {
		t.failures = 0
		t.lastValid = now
		return
	}
	t.failures++
	if t.failures >= MaxConsecutiveFailures {
		t.connected = false
	}
}

// Reset vuelve a dar el sensor por conectado (tras reinicializarlo).
func (t *Tracker) Reset(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	t.failures = 0
	t.lastValid = now
}

func (t *Tracker) Health(now time.Time) Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return HealthNotWorking
	}
	if now.Sub(t.lastValid) <= StaleAfter && t.failures == 0 {
		return HealthTracking
	}
	return HealthUnstable
}
