package harmony

import "testing"

func TestDefaultTableTriads(t *testing.T) {
	tests := []struct {
		degree Degree
		want   Triad
	}{
		{I, Triad{60, 64, 67}},
		{II, Triad{62, 65, 69}},
		{III, Triad{64, 67, 71}},
		{IV, Triad{65, 69, 72}},
		{V, Triad{67, 71, 74}},
		{VI, Triad{69, 72, 76}},
		{VII, Triad{71, 74, 77}},
	}

	for _, tt := range tests {
		if got := DefaultTable.Triad(tt.degree); got != tt.want {
			t.Errorf("Triad(%v) = %v, want %v", tt.degree, got, tt.want)
		}
	}
}

func TestTableFollowsRoot(t *testing.T) {
	table := Table{Root: 57}
	if got, want := table.Triad(I), (Triad{57, 61, 64}); got != want {
		t.Errorf("Triad(I) = %v, want %v", got, want)
	}
	if got, want := table.Triad(VII), (Triad{68, 71, 74}); got != want {
		t.Errorf("Triad(VII) = %v, want %v", got, want)
	}
}

func TestTriadPanicsWithoutDegree(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for None")
		}
	}()
	DefaultTable.Triad(None)
}

func TestParseDegree(t *testing.T) {
	tests := []struct {
		in      string
		want    Degree
		wantErr bool
	}{
		{"I", I, false},
		{"iv", IV, false},
		{" VII ", VII, false},
		{"5", V, false},
		{"8", None, true},
		{"0", None, true},
		{"IIX", None, true},
		{"", None, true},
	}

	for _, tt := range tests {
		got, err := ParseDegree(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDegree(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDegree(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoteName(t *testing.T) {
	if got := Note(60).Name(); got != "C4" {
		t.Errorf("Name(60) = %s, want C4", got)
	}
	if got := Note(70).Name(); got != "A#4" {
		t.Errorf("Name(70) = %s, want A#4", got)
	}
}
