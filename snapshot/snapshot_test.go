package snapshot

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rlbaker5/McNair2023/compress"
	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/series"
)

func testStore(t *testing.T) *series.Store {
	t.Helper()

	obs := []series.Observation{
		{PlantID: "L58-01", Group: "L58", Day: 4, Size: 120},
		{PlantID: "L58-01", Group: "L58", Day: 8, Size: series.Missing()},
		{PlantID: "L58-01", Group: "L58", Day: 12, Size: 2400},
		{PlantID: "R500-01", Group: "R500", Day: 4, Size: 95},
		{PlantID: "R500-01", Group: "R500", Day: 8, Size: 700},
	}
	st, err := series.Build(obs)
	require.NoError(t, err)

	return st
}

func testTable() *fitter.Table {
	table := &fitter.Table{}
	table.Add(fitter.Record{PlantID: "L58-01", Group: "L58", Asym: 9812.5, Xmid: 14.25, Scal: 2.5})
	table.Add(fitter.Record{PlantID: "R500-01", Group: "R500", Asym: 7200, Xmid: 17, Scal: 3})

	return table
}

// ==============================================================================
// Store snapshots
// ==============================================================================

func TestStore_RoundTrip(t *testing.T) {
	st := testStore(t)

	for _, typ := range []compress.Type{compress.TypeNone, compress.TypeZstd, compress.TypeS2, compress.TypeLZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			data, err := EncodeStore(st, WithCompression(typ))
			require.NoError(t, err)

			got, _, err := DecodeStore(data)
			require.NoError(t, err)

			require.Equal(t, st.Plants(), got.Plants())
			require.Equal(t, st.Groups(), got.Groups())
			for _, id := range st.Plants() {
				want := st.Series(id)
				have := got.Series(id)
				require.Equal(t, want.Group(), have.Group())
				require.Equal(t, want.Len(), have.Len())

				wo, ho := want.Observations(), have.Observations()
				for i := range wo {
					require.Equal(t, wo[i].Day, ho[i].Day)
					if math.IsNaN(wo[i].Size) {
						require.True(t, math.IsNaN(ho[i].Size), "missing markers survive the round trip")
					} else {
						require.Equal(t, wo[i].Size, ho[i].Size)
					}
				}
			}
		})
	}
}

func TestStore_RunIDRoundTrip(t *testing.T) {
	st := testStore(t)
	runID := uuid.New()

	data, err := EncodeStore(st, WithRunID(runID))
	require.NoError(t, err)

	_, got, err := DecodeStore(data)
	require.NoError(t, err)
	require.Equal(t, runID, got)
}

func TestEncodeStore_EmptyStore(t *testing.T) {
	_, err := EncodeStore(nil)
	require.Error(t, err)

	st, err := series.Build(nil)
	require.NoError(t, err)
	_, err = EncodeStore(st)
	require.Error(t, err)
}

// ==============================================================================
// Table snapshots
// ==============================================================================

func TestTable_RoundTrip(t *testing.T) {
	table := testTable()

	data, err := EncodeTable(table)
	require.NoError(t, err)

	got, _, err := DecodeTable(data)
	require.NoError(t, err)
	require.Equal(t, table.Len(), got.Len())

	want := table.Rows()
	have := got.Rows()
	for i := range want {
		require.Equal(t, want[i].PlantID, have[i].PlantID)
		require.Equal(t, want[i].Group, have[i].Group)
		require.Equal(t, want[i].Asym, have[i].Asym)
		require.Equal(t, want[i].Xmid, have[i].Xmid)
		require.Equal(t, want[i].Scal, have[i].Scal)
		require.Nil(t, have[i].Fit, "diagnostic fit results are not persisted")
	}
}

func TestEncodeTable_EmptyTable(t *testing.T) {
	_, err := EncodeTable(nil)
	require.Error(t, err)
	_, err = EncodeTable(&fitter.Table{})
	require.Error(t, err)
}

// ==============================================================================
// Corruption and validation
// ==============================================================================

func TestDecode_RejectsWrongKind(t *testing.T) {
	data, err := EncodeTable(testTable())
	require.NoError(t, err)

	_, _, err = DecodeStore(data)
	require.ErrorContains(t, err, "kind")
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	data, err := EncodeTable(testTable())
	require.NoError(t, err)

	data[0] ^= 0xFF
	_, _, err = DecodeTable(data)
	require.ErrorContains(t, err, "magic")
}

func TestDecode_RejectsUnknownVersion(t *testing.T) {
	data, err := EncodeTable(testTable())
	require.NoError(t, err)

	data[4] = 99
	_, _, err = DecodeTable(data)
	require.ErrorContains(t, err, "version")
}

func TestDecode_RejectsTruncation(t *testing.T) {
	data, err := EncodeStore(testStore(t))
	require.NoError(t, err)

	_, _, err = DecodeStore(data[:headerSize-1])
	require.Error(t, err)

	_, _, err = DecodeStore(data[:len(data)-3])
	require.ErrorContains(t, err, "truncated")
}

func TestDecode_RejectsPayloadCorruption(t *testing.T) {
	// An uncompressed payload isolates the checksum check from codec
	// framing errors.
	data, err := EncodeStore(testStore(t), WithCompression(compress.TypeNone))
	require.NoError(t, err)

	data[headerSize+5] ^= 0xFF
	_, _, err = DecodeStore(data)
	require.Error(t, err)
}

func TestWithCompression_RejectsUnknownCodec(t *testing.T) {
	_, err := EncodeStore(testStore(t), WithCompression(compress.Type(42)))
	require.Error(t, err)
}
