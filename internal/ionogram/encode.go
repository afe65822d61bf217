package ionogram

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/text/encoding/charmap"
)

// Encode writes the ionogram in DAT format. Clusters are written for every
// frequency of the plan; NaN cells are omitted.
func (ion *Ionogram) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	passport, err := charmap.CodePage866.NewEncoder().String(ion.Passport())
	if err != nil {
		return fmt.Errorf("failed to encode passport: %w", err)
	}
	if _, err := bw.WriteString(passport); err != nil {
		return err
	}
	if _, err := bw.Write(delimiter); err != nil {
		return err
	}

	noise := make(map[int]float64, len(ion.Noise))
	for _, n := range ion.Noise {
		noise[n.Freq] = n.Level
	}
	m := ion.Matrix()

	var rec [4]byte
	put := func(hi, lo uint16) error {
		binary.BigEndian.PutUint16(rec[0:2], hi)
		binary.BigEndian.PutUint16(rec[2:4], lo)
		_, err := bw.Write(rec[:])
		return err
	}

	for f := 0; f < ion.NFrequencies; f++ {
		if err := put(uint16(f+1)|0x8000, align); err != nil { //nolint:gosec // G115: frequency count fits the 15-bit field
			return err
		}
		if lvl, ok := noise[f]; ok {
			if err := put(toWord(lvl), noiseHeight); err != nil {
				return err
			}
		}
		for h := 0; h < ion.NHeights; h++ {
			amp := m[h][f]
			if math.IsNaN(amp) {
				continue
			}
			if err := put(toWord(amp), uint16(h)); err != nil { //nolint:gosec // G115: height index is bounded by the file format
				return err
			}
		}
	}

	return bw.Flush()
}

// WriteFile writes the ionogram to path. An existing file is kept unless overwrite is set.
func (ion *Ionogram) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}

	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return err
	}
	if err := ion.Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// toWord truncates a value into the unsigned 16-bit range of the format.
func toWord(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
