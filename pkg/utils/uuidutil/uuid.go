package uuidutil

import (
	"encoding/base64"
	"encoding/hex"
	"github.com/google/uuid"
	"strings"
)

var escaper = strings.NewReplacer("9", "99", "-", "90", "_", "91")

// UUID returns a random uuid as 32 hex digits.
func UUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ShortUUID returns a random uuid in 22 to 44 url and topic safe characters.
// refer to https://stackoverflow.com/questions/37934162/output-uuid-in-go-as-a-short-string
func ShortUUID() string {
	id := uuid.New()
	return escaper.Replace(base64.RawURLEncoding.EncodeToString(id[:]))
}

// ClientId prefixes a short uuid, e.g. for MQTT client ids that must be unique per broker.
func ClientId(prefix string) string {
	return prefix + "-" + ShortUUID()
}
