// Package romtable encodes warp remaps into the fixed-size binary table that
// the patched game reads at runtime.
//
// Each record is six bytes: trigger map group, map number, warp number, then
// target map group, map number, warp number. Unused slots are filled with
// Sentinel bytes.
package romtable

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/warprando/internal/rando"
)

// RecordSize is the size of one table record in bytes.
const RecordSize = 6

// Sentinel fills unused record slots.
const Sentinel byte = 0xFF

// ErrTableFull is returned when there are more remaps than table slots.
var ErrTableFull = errors.New("remap table full")

// Encode writes remaps into a table of capacity records.
//
// Precondition: capacity >= 1.
// Postcondition: Returns capacity*RecordSize bytes, or an error if remaps do
// not fit or a coordinate is outside 0-254.
func Encode(remaps []rando.WarpRemapping, capacity int) ([]byte, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("table capacity must be >= 1, got %d", capacity)
	}
	if len(remaps) > capacity {
		return nil, fmt.Errorf("%w: %d remaps, %d slots", ErrTableFull, len(remaps), capacity)
	}

	table := make([]byte, capacity*RecordSize)
	for i := range table {
		table[i] = Sentinel
	}
	for i, r := range remaps {
		fields := [RecordSize]int{
			r.TriggerMapGroup, r.TriggerMapNo, r.TriggerWarpNo,
			r.TargetMapGroup, r.TargetMapNo, r.TargetWarpNo,
		}
		off := i * RecordSize
		for j, v := range fields {
			// 0xFF is reserved for empty slots.
			if v < 0 || v >= int(Sentinel) {
				return nil, fmt.Errorf("remap %d (%s): field %d value %d does not fit in a byte", i, r, j, v)
			}
			table[off+j] = byte(v)
		}
	}
	return table, nil
}

// Decode reads remaps back from table, stopping at the first empty record.
//
// Postcondition: Returns the decoded remaps, or an error if len(table) is not
// a multiple of RecordSize.
func Decode(table []byte) ([]rando.WarpRemapping, error) {
	if len(table)%RecordSize != 0 {
		return nil, fmt.Errorf("table length %d is not a multiple of %d", len(table), RecordSize)
	}
	var out []rando.WarpRemapping
	for off := 0; off < len(table); off += RecordSize {
		rec := table[off : off+RecordSize]
		if empty(rec) {
			break
		}
		out = append(out, rando.WarpRemapping{
			TriggerMapGroup: int(rec[0]),
			TriggerMapNo:    int(rec[1]),
			TriggerWarpNo:   int(rec[2]),
			TargetMapGroup:  int(rec[3]),
			TargetMapNo:     int(rec[4]),
			TargetWarpNo:    int(rec[5]),
		})
	}
	return out, nil
}

func empty(rec []byte) bool {
	for _, b := range rec {
		if b != Sentinel {
			return false
		}
	}
	return true
}
