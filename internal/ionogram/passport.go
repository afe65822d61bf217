package ionogram

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the value type of a passport parameter.
type Kind byte

// Passport parameter kinds.
const (
	KindString Kind = 's'
	KindInt    Kind = 'd'
	KindFloat  Kind = 'f'
)

// Param is a single passport entry.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Units       string

	Str   string
	Int   int
	Float float64
}

// Value returns the parameter value formatted the way it is written to a passport.
func (p Param) Value() string {
	switch p.Kind {
	case KindInt:
		return strconv.Itoa(p.Int)
	case KindFloat:
		return strconv.FormatFloat(p.Float, 'f', 4, 64)
	default:
		return p.Str
	}
}

// Parameter names.
const (
	ParamDate      = "date"
	ParamTime      = "time"
	ParamPath      = "path"
	ParamMode      = "mode"
	ParamDelay     = "delay"
	ParamFreq0     = "freq0"
	ParamFreqN     = "freqN"
	ParamChirpRate = "chirp_rate"
	ParamBandWidth = "band_width"
	ParamAntenna   = "antenna"
	ParamADC       = "adc"
	ParamFreqStep  = "freq_step"
	ParamAmplCoef  = "ampl_coef"
	ParamLatitude  = "latitude"
	ParamLongitude = "longitude"
	ParamHeight    = "height"
)

// Sounding modes.
const (
	ModeVertical = "ВЗ"
	ModeOblique  = "НЗ"
)

// newPassport returns the parameter table in passport order.
func newPassport() []Param {
	return []Param{
		{Name: ParamDate, Kind: KindString, Description: "Дата"},
		{Name: ParamTime, Kind: KindString, Description: "Время начала сеанса"},
		{Name: ParamPath, Kind: KindString, Description: "Трасса зондирования"},
		{Name: ParamMode, Kind: KindString, Description: "Режим"},
		{Name: ParamDelay, Kind: KindInt, Description: "Задержка"},
		{Name: ParamFreq0, Kind: KindInt, Description: "Начальная частота"},
		{Name: ParamFreqN, Kind: KindInt, Description: "Конечная частота"},
		{Name: ParamChirpRate, Kind: KindInt, Description: "Скорость сканирования"},
		{Name: ParamBandWidth, Kind: KindInt, Description: "Полоса анализа"},
		{Name: ParamAntenna, Kind: KindString, Description: "Антенна"},
		{Name: ParamADC, Kind: KindInt, Description: "Номер АЦП"},
		{Name: ParamFreqStep, Kind: KindInt, Description: "Дискретность по частоте зондирования"},
		{Name: ParamAmplCoef, Kind: KindInt, Description: "Коэффициент усиления"},
		{Name: ParamLatitude, Kind: KindFloat, Description: "Широта пункта приёма"},
		{Name: ParamLongitude, Kind: KindFloat, Description: "Долгота пункта приёма"},
		{Name: ParamHeight, Kind: KindFloat, Description: "Высота пункта приёма"},
	}
}

// parsePassport fills params from passport text. Lines look like
// "<description>: <value> [units]". String parameters take the whole remainder.
func parsePassport(params []Param, text string) error {
	raw := make(map[string]string, len(params))

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		for i := range params {
			p := &params[i]
			if !strings.Contains(line, p.Description) {
				continue
			}
			sep := strings.Index(line, ": ")
			if sep < 0 {
				return fmt.Errorf("%w: no value separator in %q", ErrBadPassport, line)
			}
			rest := line[sep+2:]
			if p.Kind == KindString {
				raw[p.Name] = strings.TrimSpace(rest)
				continue
			}
			rest = strings.TrimLeft(rest, " ")
			if sp := strings.Index(rest, " "); sp >= 0 {
				raw[p.Name] = strings.TrimSpace(rest[:sp])
				p.Units = strings.TrimSpace(rest[sp+1:])
			} else {
				raw[p.Name] = strings.TrimSpace(rest)
			}
		}
	}

	for i := range params {
		p := &params[i]
		v, ok := raw[p.Name]
		switch p.Kind {
		case KindString:
			p.Str = v
		case KindInt:
			if !ok || v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadPassport, p.Name, err)
			}
			p.Int = n
		case KindFloat:
			if !ok || v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadPassport, p.Name, err)
			}
			p.Float = f
		}
	}
	return nil
}

// formatPassport renders params back to passport text.
func formatPassport(params []Param) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(p.Description)
		b.WriteString(": ")
		b.WriteString(p.Value())
		if p.Units != "" {
			b.WriteString(" ")
			b.WriteString(p.Units)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// parseSessionTime combines the date and time parameters.
func parseSessionTime(date, clock string) (time.Time, error) {
	if len(clock) > 8 {
		clock = clock[:8]
	}
	t, err := time.Parse("02.01.2006 15:04:05", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: session time: %v", ErrBadPassport, err)
	}
	return t, nil
}
