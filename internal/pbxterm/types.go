// Package pbxterm implements the Terminal Driver: a long-lived, stateful
// adapter that owns one child-process session to an Avaya Communication
// Manager (Definity) PBX administration terminal and translates high-level
// command requests into expect-style interactions with it.
package pbxterm

import (
	"bytes"
	"encoding/json"
)

// Mode is the PBX terminal-type the session is (or should be) in.
type Mode int

const (
	// ModeOSSI is the tab/line-oriented programmatic mode. Wire token "ossi4".
	ModeOSSI Mode = iota
	// ModeVT220 is the screen-oriented mode. Wire token "vt220".
	ModeVT220
)

// wireToken is the string the PBX expects at its "Terminal Type" prompt.
func (m Mode) wireToken() string {
	if m == ModeVT220 {
		return "vt220"
	}
	return "ossi4"
}

func (m Mode) String() string {
	if m == ModeVT220 {
		return "vt220"
	}
	return "ossi"
}

// ParseMode maps a public request token ("ossi" or "vt220") to a Mode.
// ok is false for any other token.
func ParseMode(token string) (m Mode, ok bool) {
	switch token {
	case "ossi":
		return ModeOSSI, true
	case "vt220":
		return ModeVT220, true
	default:
		return 0, false
	}
}

// Field is one (field ID, value) pair of an OssiRecord. Field IDs are
// hex-like tags such as "0007ff00".
type Field struct {
	ID    string
	Value string
}

// OssiRecord is an ordered mapping from field ID to value. It is kept as an
// ordered slice rather than a map so that field order as received on the
// wire is preserved through JSON/XML serialization, matching the original
// Flask app's JSON_SORT_KEYS=False behavior.
type OssiRecord struct {
	fields []Field
	index  map[string]int
}

// NewOssiRecord builds a record from parallel field-id and value slices,
// zipping positionally. If the slices differ in length, pairing stops at
// the shorter of the two — callers are expected to have already logged the
// length mismatch as a corrupt object.
func NewOssiRecord(ids, values []string) OssiRecord {
	n := len(ids)
	if len(values) < n {
		n = len(values)
	}
	r := OssiRecord{index: make(map[string]int, n)}
	for i := 0; i < n; i++ {
		r.Set(ids[i], values[i])
	}
	return r
}

// Set assigns a value to a field ID. A repeated ID overwrites the earlier
// entry's value in place, preserving its original position — this is what
// gives duplicate-field-id records a mapping size strictly less than the
// number of (id, value) pairs seen.
func (r *OssiRecord) Set(id, value string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[id]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[id] = len(r.fields)
	r.fields = append(r.fields, Field{ID: id, Value: value})
}

// Get returns the value for a field ID and whether it was present.
func (r OssiRecord) Get(id string) (string, bool) {
	i, ok := r.index[id]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Fields returns the record's (id, value) pairs in wire order.
func (r OssiRecord) Fields() []Field {
	return r.fields
}

// Len is the number of distinct field IDs held — smaller than the number of
// Set calls exactly when a duplicate field ID was seen.
func (r OssiRecord) Len() int {
	return len(r.fields)
}

// MarshalJSON renders the record as a JSON object with keys in wire order.
// encoding/json does not guarantee map key order, hence the manual encoder.
func (r OssiRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OssiResponse is the result shape of an OSSI command exchange.
type OssiResponse struct {
	Objects []OssiRecord `json:"ossi_objects"`
	Error   string       `json:"error,omitempty"`
	Debug   []string     `json:"debug,omitempty"`
}

// Vt220Response is the result shape of a VT220 command exchange.
type Vt220Response struct {
	Screens []string `json:"screens"`
	Error   string   `json:"error,omitempty"`
}

// UnknownTermtypeResponse is what SendPBXCommand returns when modeToken is
// neither "ossi" nor "vt220" — a bare {"error": ...}, with no ossi_objects
// or screens key, matching the original's send_pbx_command fallback.
type UnknownTermtypeResponse struct {
	Error string `json:"error"`
}
