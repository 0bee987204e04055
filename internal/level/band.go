package level

import (
	"fmt"
	"math"
)

// Band is a CEFR proficiency band.
type Band string

const (
	A1 Band = "A1"
	A2 Band = "A2"
	B1 Band = "B1"
	B2 Band = "B2"
	C1 Band = "C1"
	C2 Band = "C2"
)

// Bands lists every band from lowest to highest.
var Bands = []Band{A1, A2, B1, B2, C1, C2}

const (
	// MinLevel and MaxLevel bound a numeric level.
	MinLevel = 1.0
	MaxLevel = 6.0
)

// BandFor maps a numeric level to its band by truncation, clamped to A1..C2.
func BandFor(numeric float64) Band {
	i := int(math.Floor(numeric)) - 1
	if math.IsNaN(numeric) || i < 0 {
		i = 0
	}
	if i >= len(Bands) {
		i = len(Bands) - 1
	}
	return Bands[i]
}

// ParseBand parses a band name such as "B1".
func ParseBand(s string) (Band, error) {
	b := Band(s)
	if b.Index() < 0 {
		return "", fmt.Errorf("unknown band %q", s)
	}
	return b, nil
}

// Index returns the band's position in Bands, or -1 if unknown.
func (b Band) Index() int {
	for i, x := range Bands {
		if x == b {
			return i
		}
	}
	return -1
}

// Valid reports whether b is one of the six bands.
func (b Band) Valid() bool {
	return b.Index() >= 0
}

func (b Band) String() string {
	return string(b)
}

// Below returns the next lower band; ok is false at A1.
func (b Band) Below() (Band, bool) {
	i := b.Index()
	if i <= 0 {
		return "", false
	}
	return Bands[i-1], true
}

// Above returns the next higher band; ok is false at C2.
func (b Band) Above() (Band, bool) {
	i := b.Index()
	if i < 0 || i >= len(Bands)-1 {
		return "", false
	}
	return Bands[i+1], true
}

// Adjacent returns the in-range neighbors of b, lower band first.
func (b Band) Adjacent() []Band {
	var out []Band
	if lo, ok := b.Below(); ok {
		out = append(out, lo)
	}
	if hi, ok := b.Above(); ok {
		out = append(out, hi)
	}
	return out
}
