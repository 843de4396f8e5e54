package link

import "fmt"

// FrameStrategy decide qué hacer con un mensaje que supera el presupuesto
// seguro de una notificación pero no el tope duro.
type FrameStrategy interface {
	Name() string
	// SendOversize devuelve true si el mensaje se envía igual en un solo frame.
	SendOversize(size, budget int) bool
}

// BestEffortSingleFrame envía el mensaje completo y deja que la pila BLE
// haga lo que pueda. Es el comportamiento por defecto.
type BestEffortSingleFrame struct{}

func (BestEffortSingleFrame) Name() string               { return "best_effort" }
func (BestEffortSingleFrame) SendOversize(_, _ int) bool { return true }

// RejectOversize descarta todo lo que no entra en un frame.
type RejectOversize struct{}

func (RejectOversize) Name() string               { return "strict" }
func (RejectOversize) SendOversize(_, _ int) bool { return false }

// ParseFrameStrategy resuelve FRAME_STRATEGY.
func ParseFrameStrategy(name string) (FrameStrategy, error) {
	switch name {
	case "", "best_effort":
		return BestEffortSingleFrame{}, nil
	case "strict":
		return RejectOversize{}, nil
	default:
		return nil, fmt.Errorf("link: unknown frame strategy %q", name)
	}
}
