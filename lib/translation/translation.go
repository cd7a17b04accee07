package translation

import (
	"github.com/leonelquinteros/gotext"
)

// Translate looks msgID up in the configured locale and falls back to msgID itself.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
