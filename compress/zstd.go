package compress

// ZstdCodec implements Zstandard compression.
//
// Two build variants exist: with cgo the valyala/gozstd binding is used for
// speed; without cgo the pure-Go klauspost/compress implementation keeps the
// module portable. The wire formats are identical, so snapshots written by
// one variant decode with the other.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}
