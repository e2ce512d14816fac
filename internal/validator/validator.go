// Package validator implements the required-field and known-type checks of
// §4.3, applied to a decoded Fieldmap before the session engine acts on it.
package validator

import (
	"log"
	"strconv"

	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/fixmap"
)

// Validate reports whether fm satisfies the header's required fields, has a
// non-negative integer BodyLength when one is present (its presence is
// enforced only through the header's required set), and carries a known
// MsgType whose own required fields
// are all present and non-empty. It logs the first failing check and
// returns false rather than accumulating every violation, matching the
// reference prototype's fail-fast behavior.
func Validate(fm *fixmap.FieldMap, dict *dictionary.Dictionary) bool {
	if header, ok := dict.MessagesByName[dictionary.HeaderKey]; ok {
		for field := range header.Required {
			value, present := fm.Get(field)
			if !present || value == "" {
				log.Printf("validator: required header field is missing or empty: %s", field)
				return false
			}
		}
	}

	if bodyLength, ok := fm.Get("BodyLength"); ok {
		if n, err := strconv.Atoi(bodyLength); err != nil || n < 0 {
			log.Printf("validator: invalid BodyLength field: %q", bodyLength)
			return false
		}
	}

	msgType, ok := fm.Get("MsgType")
	if !ok || msgType == "" {
		log.Printf("validator: missing MsgType field")
		return false
	}

	def, ok := dict.MessagesByName[msgType]
	if !ok {
		log.Printf("validator: unknown MsgType: %s", msgType)
		return false
	}

	for field := range def.Required {
		value, present := fm.Get(field)
		if !present || value == "" {
			log.Printf("validator: MsgType %s required field is missing or empty: %s", msgType, field)
			return false
		}
	}

	return true
}
