package domain

import (
	"encoding/json"
)

// SystemPersona is the reserved persona for global/system-level data.
const SystemPersona = "_system"

// Value is a single stored document: any JSON value, kept in its encoded
// form. The engine never inspects it beyond validity and identity.
type Value = json.RawMessage

// AppData is one app's Key -> Value map.
type AppData map[string]Value

// PersonaData is one persona's App -> Key -> Value map. It is the unit of
// durable persistence: the whole map is rewritten on every mutation to any
// key within it.
type PersonaData map[string]AppData

// Clone returns a deep copy of the app data. Values are copied byte-wise;
// the clone shares nothing with the original.
func (a AppData) Clone() AppData {
	if a == nil {
		return nil
	}
	out := make(AppData, len(a))
	for k, v := range a {
		cp := make(Value, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Clone returns a deep copy of the persona data.
func (p PersonaData) Clone() PersonaData {
	if p == nil {
		return nil
	}
	out := make(PersonaData, len(p))
	for app, data := range p {
		out[app] = data.Clone()
	}
	return out
}

// ValidValue reports whether raw is a complete, well-formed JSON document.
func ValidValue(raw []byte) bool {
	return json.Valid(raw)
}
