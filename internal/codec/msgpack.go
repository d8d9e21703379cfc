// Package codec provides the MessagePack and ZStandard primitives used to
// ship feature batches.
package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes a Go value into MessagePack format.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return data, nil
}

// Decode deserializes MessagePack data into v, which must be a pointer.
// Untyped integers decode as int64 or uint64 and floats as float64.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}

	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}
