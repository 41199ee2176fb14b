package codec

import "google.golang.org/protobuf/proto"

// Protobuf encodes structured assets defined as protobuf messages.
// Construct with NewProtobuf; the zero value cannot decode.
//
// Encoding is deterministic so identical assets produce identical blobs.
// Unknown fields are dropped on decode, letting older readers load assets
// published from a newer schema.
type Protobuf[T proto.Message] struct {
	ctor func() T // e.g. func() *pb.UnitStats { return &pb.UnitStats{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

var (
	pbMarshal   = proto.MarshalOptions{Deterministic: true}
	pbUnmarshal = proto.UnmarshalOptions{DiscardUnknown: true}
)

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return pbMarshal.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.ctor()
	err := pbUnmarshal.Unmarshal(b, m)
	return m, err
}
