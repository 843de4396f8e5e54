package link

import (
	"context"
	"log/slog"
	"time"

	"sentry-link/internal/observability"
)

// ReadvertiseDelay es la espera tras una desconexión antes de volver a
// anunciarse, para que la pila BLE termine de limpiar.
const ReadvertiseDelay = 500 * time.Millisecond

// Advertiser vuelve a publicar el periférico.
type Advertiser interface {
	Advertise() error
}

// Poller procesa el comando pendiente, si hay.
type Poller interface {
	Poll(ctx context.Context)
}

// Manager detecta los flancos de conexión en cada ciclo y reanuncia tras
// una desconexión. No duerme: la espera se mide contra el reloj monotónico
// en ciclos sucesivos.
type Manager struct {
	sess  *Session
	adv   Advertiser
	proc  Poller
	delay time.Duration
	now   func() time.Time
	lg    *slog.Logger

	prev           ConnectionState
	armed          bool
	disconnectedAt time.Time
}

type ManagerOption func(*Manager)

func WithReadvertiseDelay(d time.Duration) ManagerOption {
	return func(m *Manager) { m.delay = d }
}

// WithClock reemplaza time.Now (pruebas).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(sess *Session, adv Advertiser, proc Poller, lg *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sess:  sess,
		adv:   adv,
		proc:  proc,
		delay: ReadvertiseDelay,
		now:   time.Now,
		lg:    lg.With("component", "lifecycle"),
		prev:  sess.State(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Tick corre una vez por ciclo del loop principal.
func (m *Manager) Tick(ctx context.Context) {
	cur := m.sess.State()
	if cur != m.prev {
		switch cur {
		case StateDisconnected:
			m.armed = true
			m.disconnectedAt = m.now()
			m.lg.Info("disconnect edge, readvertise scheduled", "delay", m.delay)
		case StateConnected:
			m.armed = false
			info := m.sess.Info()
			m.lg.Info("connect edge", "epoch", info.Epoch, "mtu", info.MTU, "pending", info.Pending)
		}
		m.prev = cur
	}

	if m.armed && cur == StateDisconnected && m.now().Sub(m.disconnectedAt) >= m.delay {
		if err := m.adv.Advertise(); err != nil {
			// queda armado; se reintenta en el próximo ciclo
			m.lg.Warn("readvertise failed", "err", err)
		} else {
			m.armed = false
			observability.Readvertise.Inc()
			m.lg.Info("advertising restarted")
		}
	}

	if m.proc != nil {
		m.proc.Poll(ctx)
	}
}
