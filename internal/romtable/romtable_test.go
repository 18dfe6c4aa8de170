package romtable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/warprando/internal/rando"
)

func TestEncode_Layout(t *testing.T) {
	remaps := []rando.WarpRemapping{
		{TriggerMapGroup: 0, TriggerMapNo: 1, TriggerWarpNo: 2, TargetMapGroup: 3, TargetMapNo: 4, TargetWarpNo: 5},
	}
	table, err := Encode(remaps, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, table)
}

func TestEncode_TableFull(t *testing.T) {
	remaps := make([]rando.WarpRemapping, 3)
	_, err := Encode(remaps, 2)
	assert.True(t, errors.Is(err, ErrTableFull))
}

func TestEncode_FieldOutOfRange(t *testing.T) {
	_, err := Encode([]rando.WarpRemapping{{TargetWarpNo: 255}}, 4)
	assert.Error(t, err)
	_, err = Encode([]rando.WarpRemapping{{TriggerMapNo: -1}}, 4)
	assert.Error(t, err)
}

func TestEncode_InvalidCapacity(t *testing.T) {
	_, err := Encode(nil, 0)
	assert.Error(t, err)
}

func TestDecode_BadLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecode_StopsAtFirstEmptyRecord(t *testing.T) {
	table := []byte{
		1, 1, 1, 2, 2, 2,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		3, 3, 3, 4, 4, 4,
	}
	remaps, err := Decode(table)
	require.NoError(t, err)
	require.Len(t, remaps, 1)
	assert.Equal(t, 2, remaps[0].TargetMapGroup)
}

func TestPropertyEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		field := rapid.IntRange(0, 254)
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		remaps := make([]rando.WarpRemapping, n)
		for i := range remaps {
			remaps[i] = rando.WarpRemapping{
				TriggerMapGroup: field.Draw(rt, "tg"),
				TriggerMapNo:    field.Draw(rt, "tm"),
				TriggerWarpNo:   field.Draw(rt, "tw"),
				TargetMapGroup:  field.Draw(rt, "dg"),
				TargetMapNo:     field.Draw(rt, "dm"),
				TargetWarpNo:    field.Draw(rt, "dw"),
			}
		}
		capacity := n + rapid.IntRange(1, 5).Draw(rt, "spare")

		table, err := Encode(remaps, capacity)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		if len(table) != capacity*RecordSize {
			rt.Fatalf("table size %d, want %d", len(table), capacity*RecordSize)
		}
		got, err := Decode(table)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if len(got) != n {
			rt.Fatalf("decoded %d remaps, want %d", len(got), n)
		}
		for i := range got {
			if got[i] != remaps[i] {
				rt.Fatalf("remap %d: got %v want %v", i, got[i], remaps[i])
			}
		}
	})
}
