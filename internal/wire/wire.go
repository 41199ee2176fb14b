package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1

	// MaxTagLen bounds the codec tag carried in a frame.
	MaxTagLen = 0xFF
)

var (
	ErrCorrupt = errors.New("assetcache: corrupt asset blob")
	ErrTag     = errors.New("assetcache: invalid codec tag")
	magic4     = [...]byte{'A', 'S', 'S', 'T'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Asset: magic(4) | ver(1) | tagLen(1) | tag(tagLen) | vlen(u32 be) | payload(vlen)
//
// The tag names the codec that produced payload, so a reader asking for a
// different type can tell a mismatch from corruption.
func EncodeAsset(tag string, payload []byte) ([]byte, error) {
	if l := len(tag); l == 0 || l > MaxTagLen {
		return nil, ErrTag
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + len(tag) + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(len(tag)))
	buf.WriteString(tag)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes(), nil
}

// DecodeAsset validates a frame and returns its tag and payload. The payload
// aliases b. Trailing bytes are rejected.
func DecodeAsset(b []byte) (tag string, payload []byte, err error) {
	const hdr = 4 + 1 + 1
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return "", nil, ErrCorrupt
	}

	off := hdr

	// tag
	tlen := int(b[5])
	if tlen == 0 || tlen > len(b)-off {
		return "", nil, ErrCorrupt
	}
	tag = string(b[off : off+tlen])
	off += tlen

	// vlen
	if off+4 > len(b) {
		return "", nil, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return "", nil, ErrCorrupt
	}

	return tag, b[off : off+vlen], nil
}
