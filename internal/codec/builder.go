package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Clock devuelve el tiempo del dispositivo en milisegundos (monotónico).
type Clock func() int64

// UptimeClock cuenta milisegundos desde su creación, como millis() en el
// firmware.
func UptimeClock() Clock {
	start := time.Now()
	return func() int64 { return time.Since(start).Milliseconds() }
}

// Builder arma los mensajes salientes. Cada llamada consume un número de
// secuencia, aunque el envío posterior falle o se descarte.
type Builder struct {
	seq   *Sequencer
	clock Clock
}

func NewBuilder(seq *Sequencer, clock Clock) *Builder {
	if clock == nil {
		clock = UptimeClock()
	}
	return &Builder{seq: seq, clock: clock}
}

type sealable interface {
	setCRC(uint16)
}

// seal serializa p sin crc, calcula el CRC sobre esos bytes, lo agrega y
// vuelve a serializar. El CRC nunca se calcula sobre el texto final.
func seal(p sealable) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal body: %w", err)
	}
	p.setCRC(Checksum(body))
	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal sealed: %w", err)
	}
	return out, nil
}

func optInt(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SensorData arma un sensor_data.
func (b *Builder) SensorData(r SensorReading) ([]byte, error) {
	pkt := &sensorPacket{
		Type:      KindSensorData,
		Sequence:  b.seq.Next(),
		Timestamp: b.clock(),
		Sensor: sensorBody{
			AX:            r.AX,
			AY:            r.AY,
			AZ:            r.AZ,
			Roll:          r.Roll,
			Pitch:         r.Pitch,
			TiltDetected:  r.TiltDetected,
			StatusCode:    optInt(r.StatusCode),
			StatusMessage: optString(r.StatusMessage),
		},
	}
	return seal(pkt)
}

var jsonNull = json.RawMessage("null")

// GPSData arma un gps_data. Sin fix (o con coordenadas en cero) latitude,
// longitude y altitude salen como null.
func (b *Builder) GPSData(p PositionFix) ([]byte, error) {
	body := gpsBody{
		Fix:           p.Fix,
		Satellites:    p.Satellites,
		StatusCode:    optInt(p.StatusCode),
		StatusMessage: optString(p.StatusMessage),
	}
	if p.HasCoordinates() {
		lat, lon := p.Latitude, p.Longitude
		body.Latitude = &lat
		body.Longitude = &lon
		if p.Altitude != 0 && finite(p.Altitude) {
			body.Altitude = json.RawMessage(strconv.FormatFloat(p.Altitude, 'g', -1, 64))
		}
	} else {
		body.Altitude = jsonNull
	}

	pkt := &gpsPacket{
		Type:      KindGPSData,
		Sequence:  b.seq.Next(),
		Timestamp: b.clock(),
		GPS:       body,
	}
	return seal(pkt)
}

// DeviceStatus arma un device_status. ble_connected siempre es true: este
// mensaje sólo viaja por un enlace activo.
func (b *Builder) DeviceStatus(s DeviceStatus) ([]byte, error) {
	pkt := &statusPacket{
		Type:      KindDeviceStatus,
		Sequence:  b.seq.Next(),
		Timestamp: b.clock(),
		Status: statusBody{
			WifiConnected: s.WifiConnected,
			GPSFix:        s.GPSFix,
			BatteryLevel:  s.BatteryLevel,
			BLEConnected:  true,
		},
	}
	return seal(pkt)
}

// Error arma un mensaje de error para el canal de control.
func (b *Builder) Error(code ErrorCode, message string) ([]byte, error) {
	pkt := &errorPacket{
		Type:      KindError,
		ErrorCode: code,
		Message:   message,
		Sequence:  b.seq.Next(),
		Timestamp: b.clock(),
	}
	return seal(pkt)
}

// CommandResponse confirma un comando aceptado. raw es el código tal como
// llegó en el campo "command".
func (b *Builder) CommandResponse(raw int64, name string) ([]byte, error) {
	pkt := &commandResponsePacket{
		Type:        KindCommandResponse,
		Command:     raw,
		CommandName: name,
		Status:      "success",
		Sequence:    b.seq.Next(),
		Timestamp:   b.clock(),
	}
	return seal(pkt)
}
