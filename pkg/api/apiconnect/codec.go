package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Connect's built-in JSON codecs only handle protobuf messages. These
// replace them under the same names so plain Go structs can travel as JSON.
var (
	handlerCodecs = []connect.HandlerOption{
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	}
	clientCodec = connect.WithCodec(jsonCodec{name: "json"})
)

type jsonCodec struct {
	name string
}

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
