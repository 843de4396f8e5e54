package link

import (
	"sync"
	"time"

	"sentry-link/internal/codec"
)

// Session guarda el estado compartido del enlace. Lo mutan los callbacks
// del transporte (otras goroutines) y lo lee el ciclo principal.
type Session struct {
	mu          sync.Mutex
	state       ConnectionState
	mtu         int
	epoch       uint64
	connectedAt time.Time

	pending    []byte
	hasPending bool

	seq codec.Sequencer
}

func NewSession() *Session {
	return &Session{mtu: codec.DefaultMTU}
}

// Connect abre una época nueva: la secuencia vuelve a empezar en 1 y el MTU
// pasa al valor negociado (o al solicitado si el transporte no lo informa).
func (s *Session) Connect(mtu int) {
	if mtu <= 0 {
		mtu = codec.RequestedMTU
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateConnected
	s.mtu = mtu
	s.epoch++
	s.connectedAt = time.Now()
	s.seq.Reset()
}

// Disconnect vuelve al MTU por defecto y descarta el comando pendiente:
// su respuesta ya no tiene a quién llegar.
func (s *Session) Disconnect() (droppedPending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.mtu = codec.DefaultMTU
	droppedPending = s.hasPending
	s.pending, s.hasPending = nil, false
	return droppedPending
}

func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Connected() bool { return s.State() == StateConnected }

func (s *Session) MTU() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mtu
}

// SetPending guarda el texto de un comando recibido. Hay un solo lugar: un
// comando nuevo pisa al anterior si todavía no se procesó.
func (s *Session) SetPending(text []byte) (overwritten bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	overwritten = s.hasPending
	s.pending = append([]byte(nil), text...)
	s.hasPending = true
	return overwritten
}

// TakePending lee y limpia el comando pendiente en una sola sección crítica.
func (s *Session) TakePending() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPending {
		return nil, false
	}
	text := s.pending
	s.pending, s.hasPending = nil, false
	return text, true
}

func (s *Session) Sequencer() *codec.Sequencer { return &s.seq }

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		State:       s.state,
		MTU:         s.mtu,
		Sequence:    s.seq.Current(),
		Epoch:       s.epoch,
		ConnectedAt: s.connectedAt,
		Pending:     s.hasPending,
	}
}
