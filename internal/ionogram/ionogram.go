// Package ionogram reads, writes and combines chirp-sounder ionograms stored in the
// DAT format: a cp866 passport block followed by big-endian frequency clusters.
package ionogram

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// LightVelocity is the propagation speed used for range conversion, m/s.
const LightVelocity = 3.0e8

const (
	clusterFlag = 0x80
	freqMask    = 0x7fff
	align       = 1
	noiseHeight = 1
)

var delimiter = []byte{0, 0, 0, 0}

// Sentinel errors.
var (
	ErrNoDelimiter  = errors.New("passport delimiter not found")
	ErrNoEchoes     = errors.New("ionogram contains no echoes")
	ErrBadPassport  = errors.New("malformed passport")
	ErrExists       = errors.New("destination file already exists")
	ErrIncompatible = errors.New("ionograms are not compatible")
)

// Noise is the noise level of one frequency cluster.
type Noise struct {
	Freq  int
	Level float64
}

// Echo is a reflected signal at a frequency cluster and height bin.
type Echo struct {
	Freq      int
	Height    int
	Amplitude float64
}

// Ionogram is a decoded DAT file.
type Ionogram struct {
	params []Param

	Noise  []Noise
	Echoes []Echo

	Time         time.Time
	NFrequencies int
	NHeights     int
	IMaxHeight   int
	MaxHeight    float64
	FirstDelay   float64
	DHeight      float64

	// AlignErrors counts cluster headers whose alignment word was not 1.
	AlignErrors int
}

// ReadFile decodes the DAT file at path.
func ReadFile(path string) (*Ionogram, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	ion, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ion, nil
}

// Decode reads a DAT ionogram from r.
func Decode(r io.Reader) (*Ionogram, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ionogram: %w", err)
	}

	idx := bytes.Index(data, delimiter)
	if idx < 0 {
		return nil, ErrNoDelimiter
	}

	text, err := charmap.CodePage866.NewDecoder().Bytes(data[:idx])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPassport, err)
	}

	ion := &Ionogram{params: newPassport()}
	if err := parsePassport(ion.params, string(text)); err != nil {
		return nil, err
	}
	if err := ion.derive(); err != nil {
		return nil, err
	}

	ion.parseClusters(data[idx+len(delimiter):])
	if len(ion.Echoes) == 0 {
		return nil, ErrNoEchoes
	}
	ion.updateHeights()

	return ion, nil
}

// derive computes the values that depend on the passport only.
func (ion *Ionogram) derive() error {
	t, err := parseSessionTime(ion.Str(ParamDate), ion.Str(ParamTime))
	if err != nil {
		return err
	}
	ion.Time = t

	step := ion.Int(ParamFreqStep)
	if step == 0 {
		return fmt.Errorf("%w: zero frequency step", ErrBadPassport)
	}
	if step < 0 {
		return fmt.Errorf("%w: frequency plan has negative step %d", ErrBadPassport, step)
	}
	ion.NFrequencies = (ion.Int(ParamFreqN) - ion.Int(ParamFreq0)) / step
	// Cluster numbers are 15 bits wide.
	if ion.NFrequencies <= 0 || ion.NFrequencies > freqMask {
		return fmt.Errorf("%w: frequency plan yields %d channels", ErrBadPassport, ion.NFrequencies)
	}

	ion.FirstDelay = float64(ion.Int(ParamDelay)) * LightVelocity / 1000 / 1000

	chirp := ion.Int(ParamChirpRate)
	if chirp == 0 {
		return fmt.Errorf("%w: zero chirp rate", ErrBadPassport)
	}
	ion.MaxHeight = LightVelocity * float64(ion.Int(ParamBandWidth)) / float64(chirp) / 1000
	if ion.Str(ParamMode) != ModeOblique {
		ion.MaxHeight /= 2
	}
	return nil
}

func (ion *Ionogram) parseClusters(body []byte) {
	cluster := -1
	for i := 0; i+4 <= len(body); i += 4 {
		hi := binary.BigEndian.Uint16(body[i : i+2])
		lo := binary.BigEndian.Uint16(body[i+2 : i+4])

		if body[i]&clusterFlag == clusterFlag {
			cluster++
			if lo != align {
				ion.AlignErrors++
			}
			continue
		}
		if lo == noiseHeight {
			ion.Noise = append(ion.Noise, Noise{Freq: cluster, Level: float64(hi)})
		} else {
			ion.Echoes = append(ion.Echoes, Echo{Freq: cluster, Height: int(lo), Amplitude: float64(hi)})
		}
	}
}

// updateHeights recomputes the height grid from the echoes.
func (ion *Ionogram) updateHeights() {
	maxIdx := 0
	for _, e := range ion.Echoes {
		if e.Height > maxIdx {
			maxIdx = e.Height
		}
	}
	ion.IMaxHeight = maxIdx
	ion.NHeights = maxIdx + 1
	if maxIdx > 0 {
		ion.DHeight = ion.MaxHeight / float64(maxIdx) / 1000
	}
}

// Param returns the named passport parameter.
func (ion *Ionogram) Param(name string) (Param, bool) {
	for _, p := range ion.params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Params returns a copy of the passport parameters in passport order.
func (ion *Ionogram) Params() []Param {
	out := make([]Param, len(ion.params))
	copy(out, ion.params)
	return out
}

// Str returns a string parameter, empty if missing.
func (ion *Ionogram) Str(name string) string {
	p, _ := ion.Param(name)
	return p.Str
}

// Int returns an integer parameter, zero if missing.
func (ion *Ionogram) Int(name string) int {
	p, _ := ion.Param(name)
	return p.Int
}

// Float returns a float parameter, zero if missing.
func (ion *Ionogram) Float(name string) float64 {
	p, _ := ion.Param(name)
	return p.Float
}

// Path returns the sounding path name.
func (ion *Ionogram) Path() string { return ion.Str(ParamPath) }

// Mode returns the sounding mode (ModeVertical or ModeOblique).
func (ion *Ionogram) Mode() string { return ion.Str(ParamMode) }

// Passport returns the passport text block.
func (ion *Ionogram) Passport() string {
	return formatPassport(ion.params)
}

// Frequencies returns the NFrequencies+1 frequency edges in MHz.
func (ion *Ionogram) Frequencies() []float64 {
	f0 := float64(ion.Int(ParamFreq0))
	step := float64(ion.Int(ParamFreqStep))
	out := make([]float64, ion.NFrequencies+1)
	for i := range out {
		out[i] = (f0 + float64(i)*step) / 1000
	}
	return out
}

// Heights returns the NHeights+1 height edges in km.
func (ion *Ionogram) Heights() []float64 {
	out := make([]float64, ion.NHeights+1)
	for i := range out {
		out[i] = ion.FirstDelay + float64(i)*ion.DHeight
	}
	return out
}

// Dimension returns the height resolution class of the recording.
func (ion *Ionogram) Dimension() int {
	if ion.IMaxHeight > 512 {
		return 1024
	}
	return 512
}

// Matrix returns amplitudes indexed [height][frequency]; empty cells are NaN.
func (ion *Ionogram) Matrix() [][]float64 {
	m := make([][]float64, ion.NHeights)
	for h := range m {
		row := make([]float64, ion.NFrequencies)
		for f := range row {
			row[f] = math.NaN()
		}
		m[h] = row
	}
	for _, e := range ion.Echoes {
		if e.Height < 0 || e.Height >= ion.NHeights || e.Freq < 0 || e.Freq >= ion.NFrequencies {
			continue
		}
		m[e.Height][e.Freq] = e.Amplitude
	}
	return m
}

// Clone returns a deep copy.
func (ion *Ionogram) Clone() *Ionogram {
	c := *ion
	c.params = ion.Params()
	c.Noise = append([]Noise(nil), ion.Noise...)
	c.Echoes = append([]Echo(nil), ion.Echoes...)
	return &c
}

// Compatible reports whether two ionograms share the frequency plan, height scale
// and delay, so that they can be accumulated.
func (ion *Ionogram) Compatible(other *Ionogram) bool {
	if len(ion.Noise) != len(other.Noise) {
		return false
	}
	for _, name := range []string{ParamFreq0, ParamFreqN, ParamFreqStep, ParamDelay} {
		if ion.Int(name) != other.Int(name) {
			return false
		}
	}
	if ion.IMaxHeight == 0 || other.IMaxHeight == 0 {
		return ion.IMaxHeight == other.IMaxHeight
	}
	return math.Abs(ion.MaxHeight/float64(ion.IMaxHeight)-other.MaxHeight/float64(other.IMaxHeight)) <= 0.01
}
