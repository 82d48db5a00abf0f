package astio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

type Format uint8

const (
	FormatMsgpack Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "msgpack"
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".mp"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "msgpack", "mp":
		return FormatMsgpack, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatMsgpack, fmt.Errorf("unknown snapshot format %q (expected: msgpack|json)", s)
}

// FormatFromPath picks the format from the file extension; anything that is
// not ".json" is msgpack.
func FormatFromPath(p string) Format {
	if strings.EqualFold(path.Ext(p), ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}

func Marshal(snap *Snapshot, f Format) ([]byte, error) {
	if f == FormatJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetOmitEmpty(true)
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte, f Format) (*Snapshot, error) {
	snap := &Snapshot{}
	if f == FormatJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(snap); err != nil {
			return nil, err
		}
		return snap, nil
	}
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(snap); err != nil {
		return nil, err
	}
	return snap, nil
}
