package codec

import (
	"encoding/json"
	"math"
)

// Lecturas que entran al builder.

// SensorReading es una muestra del acelerómetro ya normalizada (±1 g) con
// el ángulo calculado. StatusCode < 0 significa "sin código".
type SensorReading struct {
	AX, AY, AZ    float64
	Roll, Pitch   float64
	TiltDetected  bool
	StatusCode    int
	StatusMessage string
}

// PositionFix es la última lectura del GPS.
type PositionFix struct {
	Fix           bool
	Satellites    int
	Latitude      float64
	Longitude     float64
	Altitude      float64
	StatusCode    int
	StatusMessage string
}

// HasCoordinates replica la regla del firmware: una posición sólo se publica
// con fix y ambas coordenadas distintas de cero. Una posición real en 0,0
// se trata como "sin datos".
func (p PositionFix) HasCoordinates() bool {
	return p.Fix && p.Latitude != 0 && p.Longitude != 0 &&
		finite(p.Latitude) && finite(p.Longitude)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// DeviceStatus es el resumen periódico del estado del equipo.
type DeviceStatus struct {
	WifiConnected bool
	GPSFix        bool
	BatteryLevel  int
}

// Formato en el cable. El orden de los campos es el orden del JSON; crc
// siempre es el último y se omite en la primera pasada.
//
// Campos opcionales: status_code y status_message se omiten cuando no hay
// valor, mientras que latitude/longitude/altitude salen como null explícito
// cuando no hay fix. La asimetría viene del firmware y se conserva tal cual.

type sensorBody struct {
	AX            float64 `json:"ax"`
	AY            float64 `json:"ay"`
	AZ            float64 `json:"az"`
	Roll          float64 `json:"roll"`
	Pitch         float64 `json:"pitch"`
	TiltDetected  bool    `json:"tilt_detected"`
	StatusCode    *int    `json:"status_code,omitempty"`
	StatusMessage *string `json:"status_message,omitempty"`
}

type sensorPacket struct {
	Type      Kind       `json:"type"`
	Sequence  uint32     `json:"sequence"`
	Timestamp int64      `json:"timestamp"`
	Sensor    sensorBody `json:"sensor"`
	CRC       *uint16    `json:"crc,omitempty"`
}

// Altitude: nil se omite, "null" cuando no hay fix, número si se conoce.
type gpsBody struct {
	Fix           bool            `json:"fix"`
	Satellites    int             `json:"satellites"`
	StatusCode    *int            `json:"status_code,omitempty"`
	StatusMessage *string         `json:"status_message,omitempty"`
	Latitude      *float64        `json:"latitude"`
	Longitude     *float64        `json:"longitude"`
	Altitude      json.RawMessage `json:"altitude,omitempty"`
}

type gpsPacket struct {
	Type      Kind    `json:"type"`
	Sequence  uint32  `json:"sequence"`
	Timestamp int64   `json:"timestamp"`
	GPS       gpsBody `json:"gps"`
	CRC       *uint16 `json:"crc,omitempty"`
}

type statusBody struct {
	WifiConnected bool `json:"wifi_connected"`
	GPSFix        bool `json:"gps_fix"`
	BatteryLevel  int  `json:"battery_level"`
	BLEConnected  bool `json:"ble_connected"`
}

type statusPacket struct {
	Type      Kind       `json:"type"`
	Sequence  uint32     `json:"sequence"`
	Timestamp int64      `json:"timestamp"`
	Status    statusBody `json:"status"`
	CRC       *uint16    `json:"crc,omitempty"`
}

type errorPacket struct {
	Type      Kind      `json:"type"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	Sequence  uint32    `json:"sequence"`
	Timestamp int64     `json:"timestamp"`
	CRC       *uint16   `json:"crc,omitempty"`
}

type commandResponsePacket struct {
	Type        Kind    `json:"type"`
	Command     int64   `json:"command"`
	CommandName string  `json:"command_name"`
	Status      string  `json:"status"`
	Sequence    uint32  `json:"sequence"`
	Timestamp   int64   `json:"timestamp"`
	CRC         *uint16 `json:"crc,omitempty"`
}

func (p *sensorPacket) setCRC(c uint16)          { p.CRC = &c }
func (p *gpsPacket) setCRC(c uint16)             { p.CRC = &c }
func (p *statusPacket) setCRC(c uint16)          { p.CRC = &c }
func (p *errorPacket) setCRC(c uint16)           { p.CRC = &c }
func (p *commandResponsePacket) setCRC(c uint16) { p.CRC = &c }
