package level

import "testing"

func TestBandFor(t *testing.T) {
	tests := []struct {
		numeric float64
		want    Band
	}{
		{0.2, A1},
		{1.0, A1},
		{1.5, A1},
		{2.0, A2},
		{2.5, A2},
		{2.999, A2},
		{3.0, B1},
		{4.0, B2},
		{5.0, C1},
		{5.999, C1},
		{6.0, C2},
		{7.5, C2},
	}
	for _, tt := range tests {
		if got := BandFor(tt.numeric); got != tt.want {
			t.Errorf("BandFor(%v) = %s, want %s", tt.numeric, got, tt.want)
		}
	}
}

func TestBandForMonotonic(t *testing.T) {
	prev := BandFor(MinLevel)
	for n := MinLevel; n <= MaxLevel; n += 0.01 {
		b := BandFor(n)
		if b.Index() < prev.Index() {
			t.Fatalf("BandFor(%v) = %s dropped below %s", n, b, prev)
		}
		prev = b
	}
}

func TestParseBand(t *testing.T) {
	b, err := ParseBand("B2")
	if err != nil {
		t.Fatalf("parse B2: %v", err)
	}
	if b != B2 {
		t.Errorf("got %s, want B2", b)
	}
	if _, err := ParseBand("D1"); err == nil {
		t.Error("expected error for unknown band")
	}
}

func TestAdjacent(t *testing.T) {
	tests := []struct {
		band Band
		want []Band
	}{
		{A1, []Band{A2}},
		{A2, []Band{A1, B1}},
		{B2, []Band{B1, C1}},
		{C2, []Band{C1}},
	}
	for _, tt := range tests {
		got := tt.band.Adjacent()
		if len(got) != len(tt.want) {
			t.Errorf("%s.Adjacent() = %v, want %v", tt.band, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s.Adjacent() = %v, want %v", tt.band, got, tt.want)
				break
			}
		}
	}
}
