package codec

// Límites del enlace y del protocolo.
const (
	// CRCPolynomial es el polinomio CCITT usado por Checksum.
	CRCPolynomial = 0x1021

	// MaxPacketSize es el tope absoluto en bytes de un mensaje renderizado.
	MaxPacketSize = 512

	// DefaultMTU es el ATT MTU antes de cualquier negociación.
	DefaultMTU = 23
	// RequestedMTU es el MTU que pide el periférico al conectar.
	RequestedMTU = 512
	// ChunkSize es el presupuesto conservador cuando no hay MTU negociado.
	ChunkSize = 20
	// ATTHeaderSize son los bytes de cabecera ATT en cada notificación.
	ATTHeaderSize = 3
)

// Kind es el valor del campo "type" de cada mensaje saliente.
type Kind string

const (
	KindSensorData      Kind = "sensor_data"
	KindGPSData         Kind = "gps_data"
	KindDeviceStatus    Kind = "device_status"
	KindError           Kind = "error"
	KindCommandResponse Kind = "command_response"
)

// ErrorCode viaja en el campo error_code de los mensajes de error.
type ErrorCode uint8

const (
	ErrorInvalidCommand ErrorCode = 0x01
	ErrorInvalidData    ErrorCode = 0x02
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidCommand:
		return "invalid command"
	case ErrorInvalidData:
		return "invalid data"
	default:
		return "unknown error"
	}
}

// SafeFrameSize devuelve el mayor payload que cabe en una sola notificación
// para el MTU dado.
func SafeFrameSize(mtu int) int {
	if mtu > DefaultMTU {
		return mtu - ATTHeaderSize
	}
	return ChunkSize
}
