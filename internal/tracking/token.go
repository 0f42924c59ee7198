package tracking

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken genera un token opaco de 128 bits. El token viaja en la
// URL compartida y es la única credencial de lectura, así que tiene que ser
// imposible de adivinar (uuid v4 solo trae 122 bits aleatorios).
func NewSessionToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand no falla en la práctica; si pasa, no hay token seguro posible
		panic("tracking: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
