// Package snapshot persists a measurement store or a parameter table as a
// compact columnar binary file, so a fitting run can be re-analyzed without
// re-ingesting the collaborator CSV.
//
// # Layout
//
// A snapshot is a fixed 40-byte little-endian header followed by a
// codec-compressed payload:
//
//	offset  size  field
//	0       4     magic "McNR"
//	4       1     format version
//	5       1     kind (1 = store, 2 = parameter table)
//	6       1     compression codec (compress.Type)
//	7       1     reserved
//	8       16    run UUID
//	24      4     entry count
//	28      4     compressed payload length
//	32      8     xxHash64 checksum of the uncompressed payload
//
// The payload is columnar per plant: identifier and group strings followed
// by the day column and the size column as raw float64 bits (NaN missing
// markers survive the round trip). Every entry additionally carries the
// xxHash64 of its plant identifier, which doubles as a per-entry integrity
// check on decode.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/rlbaker5/McNair2023/compress"
	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/internal/hash"
	"github.com/rlbaker5/McNair2023/internal/options"
	"github.com/rlbaker5/McNair2023/series"
)

const (
	magic   = 0x52_4E_63_4D // "McNR" little-endian
	version = 1

	kindStore uint8 = 1
	kindTable uint8 = 2

	headerSize = 40
)

type encConfig struct {
	codec compress.Type
	runID uuid.UUID
}

// Option is a functional option for the Encode functions.
type Option = options.Option[*encConfig]

// WithCompression selects the payload codec (default Zstd).
func WithCompression(t compress.Type) Option {
	return options.New(func(cfg *encConfig) error {
		if _, err := compress.GetCodec(t); err != nil {
			return err
		}
		cfg.codec = t

		return nil
	})
}

// WithRunID stamps the snapshot with a specific analysis-run identifier
// instead of a freshly generated one.
func WithRunID(id uuid.UUID) Option {
	return options.NoError(func(cfg *encConfig) {
		cfg.runID = id
	})
}

// EncodeStore serializes a measurement store.
func EncodeStore(st *series.Store, opts ...Option) ([]byte, error) {
	if st == nil || st.Len() == 0 {
		return nil, fmt.Errorf("nothing to snapshot: empty store")
	}

	var payload []byte
	for _, s := range st.All() {
		payload = appendEntryKey(payload, s.PlantID(), string(s.Group()))

		obs := s.Observations()
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(obs)))
		for _, o := range obs {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(o.Day))
		}
		for _, o := range obs {
			payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(o.Size))
		}
	}

	return seal(kindStore, uint32(st.Len()), payload, opts)
}

// DecodeStore deserializes a store snapshot, returning the rebuilt store and
// the run UUID it was stamped with.
func DecodeStore(data []byte) (*series.Store, uuid.UUID, error) {
	payload, count, runID, err := open(data, kindStore)
	if err != nil {
		return nil, uuid.Nil, err
	}

	var obs []series.Observation
	r := reader{buf: payload}
	for i := uint32(0); i < count; i++ {
		plantID, group, err := r.entryKey()
		if err != nil {
			return nil, uuid.Nil, err
		}

		n, err := r.uint32()
		if err != nil {
			return nil, uuid.Nil, err
		}
		days := make([]float64, n)
		for i := range days {
			if days[i], err = r.float64(); err != nil {
				return nil, uuid.Nil, err
			}
		}
		for i := range days {
			size, err := r.float64()
			if err != nil {
				return nil, uuid.Nil, err
			}
			obs = append(obs, series.Observation{
				PlantID: plantID,
				Group:   series.Group(group),
				Day:     days[i],
				Size:    size,
			})
		}
	}
	if !r.done() {
		return nil, uuid.Nil, fmt.Errorf("snapshot payload has %d trailing bytes", r.remaining())
	}

	st, err := series.Build(obs)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("rebuild store from snapshot: %w", err)
	}

	return st, runID, nil
}

// EncodeTable serializes a parameter table. The per-record diagnostic fit
// result is not persisted; a table decoded from a snapshot carries the
// named parameters only.
func EncodeTable(t *fitter.Table, opts ...Option) ([]byte, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("nothing to snapshot: empty parameter table")
	}

	var payload []byte
	for _, rec := range t.Rows() {
		payload = appendEntryKey(payload, rec.PlantID, string(rec.Group))
		payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(rec.Asym))
		payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(rec.Xmid))
		payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(rec.Scal))
	}

	return seal(kindTable, uint32(t.Len()), payload, opts)
}

// DecodeTable deserializes a parameter-table snapshot.
func DecodeTable(data []byte) (*fitter.Table, uuid.UUID, error) {
	payload, count, runID, err := open(data, kindTable)
	if err != nil {
		return nil, uuid.Nil, err
	}

	table := &fitter.Table{}
	r := reader{buf: payload}
	for i := uint32(0); i < count; i++ {
		plantID, group, err := r.entryKey()
		if err != nil {
			return nil, uuid.Nil, err
		}
		rec := fitter.Record{PlantID: plantID, Group: series.Group(group)}
		if rec.Asym, err = r.float64(); err != nil {
			return nil, uuid.Nil, err
		}
		if rec.Xmid, err = r.float64(); err != nil {
			return nil, uuid.Nil, err
		}
		if rec.Scal, err = r.float64(); err != nil {
			return nil, uuid.Nil, err
		}
		table.Add(rec)
	}
	if !r.done() {
		return nil, uuid.Nil, fmt.Errorf("snapshot payload has %d trailing bytes", r.remaining())
	}

	return table, runID, nil
}

// seal compresses the payload and prepends the header.
func seal(kind uint8, count uint32, payload []byte, opts []Option) ([]byte, error) {
	cfg := encConfig{codec: compress.TypeZstd, runID: uuid.New()}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.codec)
	if err != nil {
		return nil, err
	}
	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot payload: %w", err)
	}

	out := make([]byte, headerSize, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:4], magic)
	out[4] = version
	out[5] = kind
	out[6] = uint8(cfg.codec)
	copy(out[8:24], cfg.runID[:])
	binary.LittleEndian.PutUint32(out[24:28], count)
	binary.LittleEndian.PutUint32(out[28:32], uint32(len(compressed)))
	binary.LittleEndian.PutUint64(out[32:40], hash.Checksum(payload))

	return append(out, compressed...), nil
}

// open validates the header, decompresses the payload and verifies its
// checksum.
func open(data []byte, wantKind uint8) (payload []byte, count uint32, runID uuid.UUID, err error) {
	if len(data) < headerSize {
		return nil, 0, uuid.Nil, fmt.Errorf("snapshot truncated: %d bytes, header needs %d", len(data), headerSize)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magic {
		return nil, 0, uuid.Nil, fmt.Errorf("not a snapshot: bad magic")
	}
	if data[4] != version {
		return nil, 0, uuid.Nil, fmt.Errorf("unsupported snapshot version %d", data[4])
	}
	if data[5] != wantKind {
		return nil, 0, uuid.Nil, fmt.Errorf("wrong snapshot kind %d, want %d", data[5], wantKind)
	}

	codec, err := compress.GetCodec(compress.Type(data[6]))
	if err != nil {
		return nil, 0, uuid.Nil, err
	}

	copy(runID[:], data[8:24])
	count = binary.LittleEndian.Uint32(data[24:28])
	compressedLen := binary.LittleEndian.Uint32(data[28:32])
	wantSum := binary.LittleEndian.Uint64(data[32:40])

	body := data[headerSize:]
	if uint32(len(body)) != compressedLen {
		return nil, 0, uuid.Nil, fmt.Errorf("snapshot truncated: payload %d bytes, header says %d", len(body), compressedLen)
	}

	payload, err = codec.Decompress(body)
	if err != nil {
		return nil, 0, uuid.Nil, fmt.Errorf("decompress snapshot payload: %w", err)
	}
	if hash.Checksum(payload) != wantSum {
		return nil, 0, uuid.Nil, fmt.Errorf("snapshot payload checksum mismatch")
	}

	return payload, count, runID, nil
}

// appendEntryKey appends the hashed identifier plus the raw identifier and
// group strings.
func appendEntryKey(payload []byte, plantID, group string) []byte {
	payload = binary.LittleEndian.AppendUint64(payload, hash.PlantID(plantID))
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(plantID)))
	payload = append(payload, plantID...)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(group)))
	payload = append(payload, group...)

	return payload
}

// reader is a bounds-checked little-endian payload reader.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }
func (r *reader) done() bool     { return r.off == len(r.buf) }

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("snapshot payload truncated at offset %d", r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n

	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) float64() (float64, error) {
	bits, err := r.uint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(bits), nil
}

func (r *reader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// entryKey reads one hashed-identifier entry key and verifies the hash.
func (r *reader) entryKey() (plantID, group string, err error) {
	sum, err := r.uint64()
	if err != nil {
		return "", "", err
	}
	if plantID, err = r.str(); err != nil {
		return "", "", err
	}
	if group, err = r.str(); err != nil {
		return "", "", err
	}
	if hash.PlantID(plantID) != sum {
		return "", "", fmt.Errorf("snapshot entry for %q fails identifier hash check", plantID)
	}

	return plantID, group, nil
}
