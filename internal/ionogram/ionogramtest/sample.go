// Package ionogramtest builds DAT fixtures for tests.
package ionogramtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// Echo is a raw echo record.
type Echo struct {
	Freq, Height, Amplitude int
}

// Sample describes a DAT file. Zero values are replaced by Default().
type Sample struct {
	Date      string // dd.mm.yyyy
	Time      string // HH:MM:SS
	Path      string
	Mode      string
	Delay     int
	Freq0     int // kHz
	FreqN     int // kHz
	FreqStep  int // kHz
	ChirpRate int
	BandWidth int
	Latitude  float64
	Longitude float64

	// Noise holds one level per frequency cluster; nil writes no noise records.
	Noise  []int
	Echoes []Echo
}

// Default returns a small vertical-sounding ionogram with four frequencies.
func Default() Sample {
	return Sample{
		Date:      "15.03.2024",
		Time:      "12:30:00",
		Path:      "Иркутск",
		Mode:      "ВЗ",
		Delay:     0,
		Freq0:     1000,
		FreqN:     5000,
		FreqStep:  1000,
		ChirpRate: 100000,
		BandWidth: 250000,
		Latitude:  52.2,
		Longitude: 104.3,
		Noise:     []int{10, 12, 14, 16},
		Echoes: []Echo{
			{Freq: 0, Height: 100, Amplitude: 40},
			{Freq: 1, Height: 120, Amplitude: 50},
			{Freq: 2, Height: 200, Amplitude: 30},
			{Freq: 3, Height: 250, Amplitude: 60},
		},
	}
}

// Passport returns the passport text.
func (s Sample) Passport() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Дата: %s\n", s.Date)
	fmt.Fprintf(&b, "Время начала сеанса: %s.000\n", s.Time)
	fmt.Fprintf(&b, "Трасса зондирования: %s\n", s.Path)
	fmt.Fprintf(&b, "Режим: %s\n", s.Mode)
	fmt.Fprintf(&b, "Задержка: %d мкс\n", s.Delay)
	fmt.Fprintf(&b, "Начальная частота: %d кГц\n", s.Freq0)
	fmt.Fprintf(&b, "Конечная частота: %d кГц\n", s.FreqN)
	fmt.Fprintf(&b, "Скорость сканирования: %d кГц/с\n", s.ChirpRate)
	fmt.Fprintf(&b, "Полоса анализа: %d Гц\n", s.BandWidth)
	fmt.Fprintf(&b, "Антенна: ВГД\n")
	fmt.Fprintf(&b, "Номер АЦП: 1\n")
	fmt.Fprintf(&b, "Дискретность по частоте зондирования: %d кГц\n", s.FreqStep)
	fmt.Fprintf(&b, "Коэффициент усиления: 10\n")
	fmt.Fprintf(&b, "Широта пункта приёма: %.4f\n", s.Latitude)
	fmt.Fprintf(&b, "Долгота пункта приёма: %.4f\n", s.Longitude)
	fmt.Fprintf(&b, "Высота пункта приёма: 0.0000\n")
	b.WriteString("\n")
	return b.String()
}

// Bytes encodes the sample.
func (s Sample) Bytes(t testing.TB) []byte {
	t.Helper()

	passport, err := charmap.CodePage866.NewEncoder().String(s.Passport())
	require.NoError(t, err)

	var b bytes.Buffer
	b.WriteString(passport)
	b.Write([]byte{0, 0, 0, 0})

	word := func(hi, lo int) {
		var rec [4]byte
		binary.BigEndian.PutUint16(rec[0:2], uint16(hi)) //nolint:gosec // G115: test values are small
		binary.BigEndian.PutUint16(rec[2:4], uint16(lo)) //nolint:gosec // G115: test values are small
		b.Write(rec[:])
	}

	nfreq := (s.FreqN - s.Freq0) / s.FreqStep
	for f := 0; f < nfreq; f++ {
		word((f+1)|0x8000, 1)
		if f < len(s.Noise) {
			word(s.Noise[f], 1)
		}
		for _, e := range s.Echoes {
			if e.Freq == f {
				word(e.Amplitude, e.Height)
			}
		}
	}
	return b.Bytes()
}

// Write stores the sample as dir/name and returns the full path.
func (s Sample) Write(t testing.TB, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, s.Bytes(t), 0o600))
	return p
}
