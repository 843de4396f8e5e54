package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// CommandCode es el código numérico del campo "command" entrante.
type CommandCode uint8

const (
	CmdUnknown         CommandCode = 0x00
	CmdGetStatus       CommandCode = 0x01
	CmdSetWifiSSID     CommandCode = 0x02
	CmdSetWifiPassword CommandCode = 0x03
	CmdSetAPIEndpoint  CommandCode = 0x04
	CmdResetDevice     CommandCode = 0x05
	CmdCalibrateSensor CommandCode = 0x06
)

var commandNames = map[CommandCode]string{
	CmdGetStatus:       "GET_STATUS",
	CmdSetWifiSSID:     "SET_WIFI_SSID",
	CmdSetWifiPassword: "SET_WIFI_PASSWORD",
	CmdSetAPIEndpoint:  "SET_API_ENDPOINT",
	CmdResetDevice:     "RESET_DEVICE",
	CmdCalibrateSensor: "CALIBRATE_SENSOR",
}

func (c CommandCode) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// Known indica si el código pertenece al conjunto reconocido.
func (c CommandCode) Known() bool {
	_, ok := commandNames[c]
	return ok
}

var (
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrMissingCommand   = errors.New("missing command field")
	ErrUnknownCommand   = errors.New("unknown command type")
	ErrMissingValue     = errors.New("missing value field")
	ErrChecksumMissing  = errors.New("no crc field")
	ErrChecksumMismatch = errors.New("crc mismatch")
)

// Command es un comando de control ya parseado.
type Command struct {
	Code     CommandCode
	Raw      int64 // valor tal como llegó, para el eco en la respuesta
	Value    string
	HasValue bool
}

// ParseCommand interpreta el texto recibido por el canal de control:
//
//	{"command": <int>, "value": "<string>"}
//
// Un "value" que no sea string cuenta como ausente.
func ParseCommand(text []byte) (Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(text), &fields); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	// "null" o un array también deserializan sin error en un map nil
	if fields == nil {
		return Command{}, ErrInvalidJSON
	}

	rawCode, ok := fields["command"]
	if !ok {
		return Command{}, ErrMissingCommand
	}

	code, ok := commandNumber(rawCode)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, rawCode)
	}

	cmd := Command{Code: CmdUnknown, Raw: code}
	if code >= 0 && code <= 0xFF && CommandCode(code).Known() {
		cmd.Code = CommandCode(code)
	}

	if rawVal, ok := fields["value"]; ok {
		var s string
		if err := json.Unmarshal(rawVal, &s); err == nil {
			cmd.Value = s
			cmd.HasValue = true
		}
	}

	if cmd.Code == CmdUnknown {
		return cmd, fmt.Errorf("%w: %d", ErrUnknownCommand, code)
	}
	return cmd, nil
}

// commandNumber acepta enteros y números con parte fraccionaria cero
// ({"command":1.0} es GET_STATUS).
func commandNumber(raw json.RawMessage) (int64, bool) {
	var code int64
	if err := json.Unmarshal(raw, &code); err == nil {
		return code, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
