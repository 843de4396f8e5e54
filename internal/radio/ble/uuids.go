package ble

import (
	"tinygo.org/x/bluetooth"

	"sentry-link/internal/radio"
)

func must(u bluetooth.UUID, err error) bluetooth.UUID {
	if err != nil {
		panic(err)
	}
	return u
}

// Servicio GATT del dispositivo y una característica por canal.
var (
	ServiceUUID = must(bluetooth.ParseUUID("4fafc201-1fb5-459e-8fcc-c5c9c331914b"))

	CharacteristicUUIDs = map[radio.Channel]bluetooth.UUID{
		radio.ChannelSensor: must(bluetooth.ParseUUID("beb5483e-36e1-4688-b7f5-ea07361b26a8")),
		radio.ChannelGPS:    must(bluetooth.ParseUUID("beb5483e-36e1-4688-b7f5-ea07361b26a9")),
		radio.ChannelConfig: must(bluetooth.ParseUUID("beb5483e-36e1-4688-b7f5-ea07361b26aa")),
		radio.ChannelStatus: must(bluetooth.ParseUUID("beb5483e-36e1-4688-b7f5-ea07361b26ab")),
	}
)

// permissions: los canales de datos son read+notify; config además acepta
// escrituras con y sin respuesta.
func permissions(ch radio.Channel) bluetooth.CharacteristicPermissions {
	p := bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission
	if ch == radio.ChannelConfig {
		p |= bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission
	}
	return p
}
