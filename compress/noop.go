package compress

// NoOpCodec passes payloads through untouched. Useful when inspecting
// snapshot files with a hex dump, and as the baseline in benchmarks.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// Compress returns the input slice as-is, without copying.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without copying.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
