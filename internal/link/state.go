package link

// ConnectionState es el estado del enlace con el único cliente.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
