package dispatcher

import (
	"context"
	"sync"

	"sentry-link/internal/codec"
)

/* =======================================================================
                        COMMAND DEFINITION
======================================================================= */

// Handler describe cómo atender un código de comando. Con NeedsValue el
// comando exige un "value" string y sin él se responde invalid data. Run
// ejecuta el efecto antes del acuse; un error se registra pero no cambia la
// respuesta porque el comando ya fue aceptado.
type Handler struct {
	Code       codec.CommandCode
	NeedsValue bool
	Run        func(ctx context.Context, cmd codec.Command) error
}

type registry struct {
	mu       sync.RWMutex
	handlers map[codec.CommandCode]Handler
}

func newRegistry() *registry {
	return &registry{handlers: make(map[codec.CommandCode]Handler)}
}

func (r *registry) register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Code] = h
}

func (r *registry) get(code codec.CommandCode) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[code]
	return h, ok
}

/* =======================================================================
                        BUILT-IN COMMANDS
======================================================================= */

// ConfigKey nombra un valor de configuración recibido por comando.
type ConfigKey string

const (
	KeyWifiSSID     ConfigKey = "wifi_ssid"
	KeyWifiPassword ConfigKey = "wifi_password"
	KeyAPIEndpoint  ConfigKey = "api_endpoint"
)

// configKeys relaciona los comandos SET_* con su clave.
var configKeys = map[codec.CommandCode]ConfigKey{
	codec.CmdSetWifiSSID:     KeyWifiSSID,
	codec.CmdSetWifiPassword: KeyWifiPassword,
	codec.CmdSetAPIEndpoint:  KeyAPIEndpoint,
}

func (p *Processor) registerBuiltins() {
	// el estado lo publica el ciclo principal; aquí sólo se acusa
	p.Register(Handler{Code: codec.CmdGetStatus})

	for code, key := range configKeys {
		key := key
		p.Register(Handler{
			Code:       code,
			NeedsValue: true,
			Run: func(ctx context.Context, cmd codec.Command) error {
				return p.saveConfig(ctx, key, cmd.Value)
			},
		})
	}

	p.Register(Handler{
		Code: codec.CmdResetDevice,
		Run: func(context.Context, codec.Command) error {
			p.scheduleRestart()
			return nil
		},
	})

	p.Register(Handler{
		Code: codec.CmdCalibrateSensor,
		Run: func(ctx context.Context, _ codec.Command) error {
			if p.calibrator == nil {
				return nil
			}
			return p.calibrator.Calibrate(ctx)
		},
	})
}
