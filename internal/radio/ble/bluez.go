package ble

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	bluezDevice       = "org.bluez.Device1"
	propertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// bluezPresence sigue la propiedad Connected de org.bluez.Device1 en el bus
// del sistema. Se asume un host dedicado: cualquier dispositivo que conecte
// cuenta como central.
type bluezPresence struct{}

func (bluezPresence) Watch(ctx context.Context, fn func(addr string, connected bool)) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("ble: system bus: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, bluezDevice),
	); err != nil {
		conn.Close()
		return fmt.Errorf("ble: match PropertiesChanged: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	go func() {
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				conn.RemoveSignal(signals)
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if connected, ok := deviceConnected(sig); ok {
					fn(string(sig.Path), connected)
				}
			}
		}
	}()
	return nil
}

// deviceConnected extrae Connected de un PropertiesChanged de Device1.
func deviceConnected(sig *dbus.Signal) (bool, bool) {
	if sig == nil || sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != bluezDevice {
		return false, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false, false
	}
	v, ok := changed["Connected"]
	if !ok {
		return false, false
	}
	connected, ok := v.Value().(bool)
	return connected, ok
}
