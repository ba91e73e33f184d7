package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CodecName is the codec registered on both handler and client. It replaces
// connect's protobuf-JSON codec, so plain Go structs travel as JSON.
const CodecName = "json"

// jsonCodec implements connect.Codec with encoding/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal keeps numbers as json.Number so prices are never routed through float64.
func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
