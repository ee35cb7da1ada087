package repo

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint — sha256 опубликованного текста в hex. Сохраняется вместе
// с отметкой о публикации, чтобы по логам брокера можно было найти запись.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
