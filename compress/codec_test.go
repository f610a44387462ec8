package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// samplePayload is compressible columnar-ish data with a repeating pattern.
func samplePayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 31)
	}

	return data
}

func TestCodecs_RoundTrip(t *testing.T) {
	// LZ4 block compression yields an empty block for incompressible
	// input, so the shared payloads stay repetitive.
	payloads := [][]byte{
		nil,
		{},
		samplePayload(64),
		samplePayload(64 << 10),
	}

	for _, typ := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := GetCodec(typ)
			require.NoError(t, err)

			for _, payload := range payloads {
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				restored, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.True(t, bytes.Equal(payload, restored),
					"round trip of %d bytes through %s", len(payload), typ)
			}
		})
	}
}

func TestCodecs_CompressibleDataShrinks(t *testing.T) {
	payload := samplePayload(64 << 10)

	for _, typ := range []Type{TypeZstd, TypeS2, TypeLZ4} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		compressed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload), "%s should shrink repetitive data", typ)
	}
}

func TestNoOpCodec_PassThrough(t *testing.T) {
	payload := samplePayload(128)

	codec, err := GetCodec(TypeNone)
	require.NoError(t, err)

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, payload, compressed)
}

func TestDecompress_RejectsGarbage(t *testing.T) {
	garbage := []byte("definitely not a compressed frame")

	for _, typ := range []Type{TypeZstd, TypeS2} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		_, err = codec.Decompress(garbage)
		require.Error(t, err, "%s must reject an invalid frame", typ)
	}
}

func TestType_Names(t *testing.T) {
	require.Equal(t, "none", TypeNone.String())
	require.Equal(t, "zstd", TypeZstd.String())
	require.Equal(t, "s2", TypeS2.String())
	require.Equal(t, "lz4", TypeLZ4.String())
	require.Equal(t, "unknown", Type(99).String())
}

func TestTypeFromString(t *testing.T) {
	for _, want := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		got, err := TypeFromString(want.String())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := TypeFromString("ZSTD")
	require.NoError(t, err)
	require.Equal(t, TypeZstd, got)

	_, err = TypeFromString("brotli")
	require.Error(t, err)
}

func TestGetCodec_UnknownType(t *testing.T) {
	_, err := GetCodec(Type(42))
	require.Error(t, err)
}
