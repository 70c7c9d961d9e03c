package service

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype messages of this service travel as.
const CodecName = "json"

// jsonCodec marshals the plain Go message structs of this package as JSON.
type jsonCodec struct {
	api jsoniter.API
}

func (c jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return c.api.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{api: jsoniter.ConfigCompatibleWithStandardLibrary})
}
