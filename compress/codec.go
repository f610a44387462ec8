// Package compress provides the payload codecs used by snapshot
// persistence: Zstd for archival snapshots, S2 and LZ4 for fast local
// round-trips, and None for debugging.
package compress

import (
	"fmt"
	"strings"
)

// Type identifies a compression codec. The numeric values are stored in
// snapshot headers and must stay stable.
type Type uint8

const (
	// TypeNone stores payloads uncompressed.
	TypeNone Type = iota
	// TypeZstd is Zstandard: best ratio, for archival snapshots.
	TypeZstd
	// TypeS2 is the S2 Snappy variant: fast with a moderate ratio.
	TypeS2
	// TypeLZ4 is LZ4 block compression: fastest decompression.
	TypeLZ4
)

var typeNames = map[Type]string{
	TypeNone: "none",
	TypeZstd: "zstd",
	TypeS2:   "s2",
	TypeLZ4:  "lz4",
}

// String returns the codec name, or "unknown" for an invalid Type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "unknown"
}

// TypeFromString resolves a codec name (case-insensitive). It returns an
// error for unknown names so CLI flag parsing can report them.
func TypeFromString(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(name, n) {
			return t, nil
		}
	}

	return TypeNone, fmt.Errorf("unknown compression type: %q", name)
}

// Codec compresses and decompresses snapshot payloads.
//
// Implementations must be safe for concurrent use. Returned slices are newly
// allocated and owned by the caller (except TypeNone, which passes the input
// through); input slices are never modified.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// GetCodec returns the codec for a Type.
func GetCodec(t Type) (Codec, error) {
	switch t {
	case TypeNone:
		return NoOpCodec{}, nil
	case TypeZstd:
		return ZstdCodec{}, nil
	case TypeS2:
		return S2Codec{}, nil
	case TypeLZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", t)
	}
}
