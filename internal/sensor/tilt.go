// Package sensor convierte muestras del acelerómetro en lecturas listas
// para publicar: ángulos, detección de inclinación y estado del sensor.
package sensor

import "math"

// DefaultTiltThreshold en grados. Con 180 la detección queda en la práctica
// apagada; se ajusta con TILT_THRESHOLD.
const DefaultTiltThreshold = 180.0

// Tilt calcula roll y pitch en grados a partir de la aceleración en g.
func Tilt(ax, ay, az float64) (roll, pitch float64) {
	roll = math.Atan2(ay, az) * 180 / math.Pi
	pitch = math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * 180 / math.Pi
	return roll, pitch
}

// TiltExceeded indica si algún ángulo supera el umbral en valor absoluto.
func TiltExceeded(roll, pitch, threshold float64) bool {
	return math.Abs(roll) > threshold || math.Abs(pitch) > threshold
}
