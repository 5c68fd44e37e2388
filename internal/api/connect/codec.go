package connect

import (
	"bytes"
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

// jsonCodec encodes plain Go structs as JSON. It replaces connect's built-in
// "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

// WithJSON returns the handler option installing the JSON codec.
func WithJSON() connect.HandlerOption {
	return connect.WithCodec(jsonCodec{})
}

// clientOptions returns the client options matching WithJSON.
func clientOptions(opts ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}
