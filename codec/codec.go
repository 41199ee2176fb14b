// Package codec turns asset values into blob bytes and back. source/blob
// picks the codec registered for the Go type a view asks for.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
