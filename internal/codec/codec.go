// Package codec implements the schema-driven encoder/decoder of §4.2: it
// translates between wire bytes and a Fieldmap using the field and message
// dictionaries, computing BodyLength and CheckSum.
//
// Internally the codec works with '|' as a field separator, the in-memory
// placeholder for SOH (0x01). CheckSum is nonetheless computed over the
// true SOH-separated form of the message, so the three-digit value appended
// to every encoded message is the one a standards-compliant FIX counterparty
// would also compute once '|' is swapped for SOH at the wire boundary (a
// substitution performed by the router, §4.7, immediately before the bytes
// reach the transport).
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/fixmap"
)

const (
	// Sep is the in-memory field separator placeholder for SOH.
	Sep = "|"

	soh = "\x01"

	sendingTimeFormat = "20060102-15:04:05.000"
)

// Codec pairs a loaded dictionary with the ready-to-send templates seeded
// from the predefined-message JSON file.
type Codec struct {
	Dict      *dictionary.Dictionary
	Templates map[string]*fixmap.FieldMap
}

// New constructs a Codec.
func New(dict *dictionary.Dictionary, templates map[string]*fixmap.FieldMap) *Codec {
	return &Codec{Dict: dict, Templates: templates}
}

// Decode splits raw on the '|' separator and resolves each tag=value pair
// against the field dictionary. It never fails: unknown tag numbers are
// recorded under the synthetic key "Unknown tag" and the returned type name
// becomes "UnknownTag"; non-numeric tag positions are recorded under
// "Invalid tag number" with type name "InvalidTagNumber". The validator is
// responsible for rejecting whatever this produces.
func (c *Codec) Decode(raw string) (string, *fixmap.FieldMap) {
	fm := fixmap.New()
	msgTypeName := ""

	for _, part := range strings.Split(raw, Sep) {
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			fm.Set("Invalid tag number", part)
			msgTypeName = "InvalidTagNumber"
			continue
		}
		tagStr, value := part[:idx], part[idx+1:]

		tagNum, err := strconv.Atoi(tagStr)
		if err != nil {
			fm.Set("Invalid tag number", value)
			msgTypeName = "InvalidTagNumber"
			continue
		}

		fd, ok := c.Dict.FieldsByNumber[tagNum]
		if !ok {
			fm.Set("Unknown tag", value)
			msgTypeName = "UnknownTag"
			continue
		}

		resolved := value
		if fd.Number == 35 {
			if fd.Enums != nil {
				if desc, ok := fd.Enums[value]; ok {
					resolved = desc
				}
			}
			msgTypeName = resolved
		}

		if !fm.Has(fd.Name) {
			fm.Set(fd.Name, resolved)
		}
	}

	return msgTypeName, fm
}

// EncodeFromTemplate clones the template registered under typeName, overlays
// overrides, and emits the result in template field order (§4.2).
func (c *Codec) EncodeFromTemplate(typeName string, overrides *fixmap.FieldMap, seqNum uint64) (string, error) {
	tmpl, ok := c.Templates[typeName]
	if !ok {
		return "", fmt.Errorf("codec: no template registered for message type %q", typeName)
	}
	merged := tmpl.Clone()
	merged.Merge(overrides)
	return c.encode(merged, seqNum), nil
}

// EncodeFromFieldmap emits fm directly in its own field order; fields absent
// from the dictionary are passed through verbatim under their original name.
func (c *Codec) EncodeFromFieldmap(fm *fixmap.FieldMap, seqNum uint64) (string, error) {
	return c.encode(fm, seqNum), nil
}

func (c *Codec) encode(fm *fixmap.FieldMap, seqNum uint64) string {
	pieces := make([]string, 0, fm.Len())
	var bodyLength uint32
	bodyLengthIdx := -1

	for _, key := range fm.Keys() {
		if key == "CheckSum" {
			continue
		}
		value, _ := fm.Get(key)

		switch key {
		case "SendingTime":
			value = time.Now().UTC().Format(sendingTimeFormat)
		case "MsgSeqNum":
			value = strconv.FormatUint(seqNum, 10)
		}

		tag := key
		if fd, ok := c.Dict.FieldsByName[key]; ok {
			if fd.EnumsByName != nil {
				if code, ok := fd.EnumsByName[value]; ok {
					value = code
				}
			}
			tag = strconv.Itoa(fd.Number)
		}

		var piece string
		if key == "BodyLength" {
			bodyLengthIdx = len(pieces)
			piece = tag + "=#"
		} else {
			piece = tag + "=" + value
		}
		pieces = append(pieces, piece)

		if key != "BeginString" && key != "BodyLength" {
			bodyLength = saturatingAdd(bodyLength, uint32(len(piece))+1)
		}
	}

	if bodyLengthIdx >= 0 {
		tag := strings.SplitN(pieces[bodyLengthIdx], "=", 2)[0]
		pieces[bodyLengthIdx] = tag + "=" + strconv.FormatUint(uint64(bodyLength), 10)
	}

	withoutChecksum := strings.Join(pieces, Sep) + Sep
	sum := checksum(withoutChecksum)
	return withoutChecksum + fmt.Sprintf("10=%03d%s", sum, Sep)
}

// checksum computes the standard FIX checksum: the sum of the message's
// bytes in true SOH-separated form, modulo 256. s is given in '|'-placeholder
// form; it is converted to SOH form before summing so the result matches
// what a standards-compliant counterparty would compute over the real wire
// bytes.
func checksum(s string) int {
	wire := strings.ReplaceAll(s, Sep, soh)
	sum := 0
	for i := 0; i < len(wire); i++ {
		sum += int(wire[i])
	}
	return sum % 256
}

// saturatingAdd adds b to a, clamping at the maximum uint32 instead of
// wrapping, so a malformed (absurdly long) field cannot corrupt BodyLength
// via overflow.
func saturatingAdd(a, b uint32) uint32 {
	sum := a + b
	if sum < a {
		return ^uint32(0)
	}
	return sum
}
