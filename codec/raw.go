package codec

// Bytes is an identity codec for []byte values. Encode/Decode return the
// input unchanged. Useful for opaque assets (audio, fonts, shaders) that the
// host parses itself; the blob frame still validates and tags them.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String is a trivial codec for text assets (dialogue, strings files).
// By convention this assumes UTF-8 and performs no validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
