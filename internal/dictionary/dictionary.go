// Package dictionary loads the field and message dictionaries that drive the
// codec and validator (§4.1). A field dictionary (tag number, name, type,
// enumerations) and a message dictionary (required/optional fields per
// message type) are each parsed from XML; a missing file degrades to an
// empty dictionary rather than failing the load, which keeps the engine
// runnable in tests that do not care about schema enforcement.
package dictionary

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"

	"github.com/primefix/fix-engine/internal/fxerr"
)

// Dictionary holds both lookup directions for fields and messages.
type Dictionary struct {
	FieldsByNumber map[int]*FieldDefinition
	FieldsByName   map[string]*FieldDefinition

	MessagesByName map[string]*MessageDefinition
	MessagesByType map[string]*MessageDefinition
}

// LoadFieldDictionary parses the field dictionary XML at path. A missing
// file yields an empty, non-nil Dictionary's field tables rather than an
// error (degraded mode, §4.1).
func LoadFieldDictionary(path string) (map[int]*FieldDefinition, map[string]*FieldDefinition, error) {
	byNumber := make(map[int]*FieldDefinition)
	byName := make(map[string]*FieldDefinition)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return byNumber, byName, nil
		}
		return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("reading field dictionary %s", path), Cause: err}
	}

	var doc xmlFieldDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("parsing field dictionary %s", path), Cause: err}
	}

	for _, section := range doc.Fields {
		for _, xf := range section.Field {
			if xf.Name == "" || xf.Number == "" || xf.Type == "" {
				return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("field element missing name/number/type: %+v", xf)}
			}
			number, err := strconv.Atoi(xf.Number)
			if err != nil {
				return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("field %s has non-numeric number %q", xf.Name, xf.Number), Cause: err}
			}

			fd := &FieldDefinition{
				Number: number,
				Name:   xf.Name,
				Type:   parseFieldType(xf.Type),
			}
			if len(xf.Values) > 0 {
				fd.Enums = make(map[string]string, len(xf.Values))
				fd.EnumsByName = make(map[string]string, len(xf.Values))
				for _, v := range xf.Values {
					fd.Enums[v.Enum] = v.Description
					fd.EnumsByName[v.Description] = v.Enum
				}
			}

			byNumber[number] = fd
			byName[xf.Name] = fd
		}
	}

	return byNumber, byName, nil
}

// LoadMessageDictionary parses the message dictionary XML at path, folding
// the header's required-field set and field list into every message. A
// missing file yields empty tables, matching the field dictionary's degraded
// mode.
func LoadMessageDictionary(path string) (map[string]*MessageDefinition, map[string]*MessageDefinition, error) {
	byName := make(map[string]*MessageDefinition)
	byType := make(map[string]*MessageDefinition)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return byName, byType, nil
		}
		return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("reading message dictionary %s", path), Cause: err}
	}

	var doc xmlPayloadDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("parsing message dictionary %s", path), Cause: err}
	}

	headerRequired := make(map[string]bool)
	var headerFields []string
	if doc.Header != nil {
		def, err := buildMessageDefinition(HeaderKey, "", CategoryAdmin, doc.Header.Fields, nil)
		if err != nil {
			return nil, nil, err
		}
		byName[HeaderKey] = def
		headerRequired = def.Required
		headerFields = def.Fields
	}

	if doc.Trailer != nil {
		def, err := buildMessageDefinition(TrailerKey, "", CategoryAdmin, doc.Trailer.Fields, nil)
		if err != nil {
			return nil, nil, err
		}
		byName[TrailerKey] = def
	}

	for _, m := range doc.Messages {
		if m.Name == "" || m.MsgType == "" || m.MsgCat == "" {
			return nil, nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("message element missing name/msgtype/msgcat: %+v", m)}
		}
		cat := CategoryApp
		if m.MsgCat == "admin" {
			cat = CategoryAdmin
		}
		def, err := buildMessageDefinition(m.Name, m.MsgType, cat, m.Fields, headerRequired)
		if err != nil {
			return nil, nil, err
		}
		def.Fields = append(append([]string{}, headerFields...), def.Fields...)

		byName[m.Name] = def
		byType[m.MsgType] = def
	}

	return byName, byType, nil
}

func buildMessageDefinition(name, msgType string, cat Category, fields []xmlFieldUsage, extraRequired map[string]bool) (*MessageDefinition, error) {
	required := make(map[string]bool, len(extraRequired))
	for k := range extraRequired {
		required[k] = true
	}
	ordered := make([]string, 0, len(fields))

	for _, xf := range fields {
		if xf.Name == "" || xf.Required == "" {
			return nil, &fxerr.DictionaryError{Detail: fmt.Sprintf("field usage in message %s missing name/required: %+v", name, xf)}
		}
		ordered = append(ordered, xf.Name)
		if xf.Required == "Y" {
			required[xf.Name] = true
		}
	}

	return &MessageDefinition{
		Name:     name,
		MsgType:  msgType,
		Category: cat,
		Required: required,
		Fields:   ordered,
	}, nil
}

// Load parses both dictionaries and returns a combined Dictionary.
func Load(fieldPath, messagePath string) (*Dictionary, error) {
	fieldsByNumber, fieldsByName, err := LoadFieldDictionary(fieldPath)
	if err != nil {
		return nil, err
	}
	messagesByName, messagesByType, err := LoadMessageDictionary(messagePath)
	if err != nil {
		return nil, err
	}
	return &Dictionary{
		FieldsByNumber: fieldsByNumber,
		FieldsByName:   fieldsByName,
		MessagesByName: messagesByName,
		MessagesByType: messagesByType,
	}, nil
}
