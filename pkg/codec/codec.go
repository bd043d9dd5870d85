// Package codec (de)serializes a ContentsView snapshot, the spec's
// `serde` feature toggle: JSON via encoding/json always, plus a compact
// binary varint codec via google.golang.org/protobuf's wire encoding
// helpers for the common string-key/[]byte-value case — reusing a
// dependency the teacher's stack already pulls in transitively through
// Prometheus, rather than hand-rolling a length-prefix format.
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	concurrentmap "github.com/Voskan/concurrentmap/pkg"
)

// MarshalJSON renders a ContentsView[K,V] snapshot as a JSON object,
// requiring K to be a JSON-representable map key (string, integer, or a
// type implementing encoding.TextMarshaler, per encoding/json's rules).
func MarshalJSON[K comparable, V any](view *concurrentmap.ContentsView[K, V]) ([]byte, error) {
	return json.Marshal(view.AsMap())
}

// UnmarshalJSON parses data produced by MarshalJSON back into a plain Go
// map, which callers can then bulk-insert into a fresh Map via
// pkg/fanout.ParallelInsert or a plain loop.
func UnmarshalJSON[K comparable, V any](data []byte) (map[K]V, error) {
	out := make(map[K]V)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("codec: unmarshal json: %w", err)
	}
	return out, nil
}

// MarshalBinary encodes a ContentsView[string,[]byte] snapshot as a
// sequence of protobuf wire varint-length-prefixed (key, value) pairs —
// not a full protobuf message (there is no fixed schema for an arbitrary
// map), just its LEB128 varint primitives reused as a compact
// length-prefix framing, which is the concrete thing the teacher's
// dependency graph actually gives us for free.
func MarshalBinary(view *concurrentmap.ContentsView[string, []byte]) []byte {
	var buf []byte
	view.Range(func(k string, v []byte) bool {
		buf = protowire.AppendVarint(buf, uint64(len(k)))
		buf = append(buf, k...)
		buf = protowire.AppendVarint(buf, uint64(len(v)))
		buf = append(buf, v...)
		return true
	})
	return buf
}

// UnmarshalBinary decodes data produced by MarshalBinary into a plain Go
// map.
func UnmarshalBinary(data []byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for len(data) > 0 {
		keyLen, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, fmt.Errorf("codec: truncated key length")
		}
		data = data[n:]
		if uint64(len(data)) < keyLen {
			return nil, fmt.Errorf("codec: truncated key")
		}
		key := string(data[:keyLen])
		data = data[keyLen:]

		valLen, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, fmt.Errorf("codec: truncated value length")
		}
		data = data[n:]
		if uint64(len(data)) < valLen {
			return nil, fmt.Errorf("codec: truncated value")
		}
		value := make([]byte, valLen)
		copy(value, data[:valLen])
		data = data[valLen:]

		out[key] = value
	}
	return out, nil
}
