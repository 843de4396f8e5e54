package codec

import "sync/atomic"

// Sequencer entrega números de secuencia 1, 2, 3... dentro de una época
// (una conexión). Reset vuelve a cero; el siguiente Next devuelve 1.
type Sequencer struct {
	n atomic.Uint32
}

func (s *Sequencer) Next() uint32 { return s.n.Add(1) }

func (s *Sequencer) Reset() { s.n.Store(0) }

// Current devuelve el último valor entregado sin consumir uno nuevo.
func (s *Sequencer) Current() uint32 { return s.n.Load() }
