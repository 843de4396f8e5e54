package link

import "time"

// Info es una vista de sólo lectura de la sesión, para logs y health.
type Info struct {
	State       ConnectionState
	MTU         int
	Sequence    uint32
	Epoch       uint64
	ConnectedAt time.Time
	Pending     bool
}
