package tiling

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func TestAssembleAttachPoints(t *testing.T) {
	t.Parallel()

	sc := squareShape()
	l0 := L0Tile{M: 8, K: 2, N: 16, DoubleBufferA: true}

	tests := []struct {
		name    string
		l1      L1Tile
		aAttach int
		bAttach int
		abk     int
		minK    int
		fullA   bool
		fullB   bool
	}{
		{
			name:    "tiled k on both",
			l1:      L1Tile{Strategy: NeitherFull, KA: 4, MA: 8, KB: 2, NB: 16, RepeatA: 1, RepeatB: 2},
			aAttach: AttachTiledK, bAttach: AttachTiledK,
			abk: 1, minK: 0,
		},
		{
			name:    "a resident",
			l1:      L1Tile{Strategy: AFull, KA: 16, MA: 16, KB: 16, NB: 8, RepeatA: 1, RepeatB: 1},
			aAttach: AttachResident, bAttach: AttachFullK,
			abk: 0, minK: 1,
			fullA: true,
		},
		{
			name:    "b larger k",
			l1:      L1Tile{Strategy: NeitherFull, KA: 2, MA: 8, KB: 8, NB: 16, RepeatA: 1, RepeatB: 2},
			aAttach: AttachTiledK, bAttach: AttachTiledK,
			abk: 2, minK: 0,
		},
	}
	for _, tc := range tests {
		d, err := Assemble(squareProblem(), testTarget(), CoreSplit{Batch: 1, N: 1, M: 1, H: 1}, sc, l0, tc.l1, UBTile{})
		if err != nil {
			t.Fatalf("%s: Assemble: %v", tc.name, err)
		}
		if d.AL1Attach != tc.aAttach || d.BL1Attach != tc.bAttach {
			t.Errorf("%s: attach = %d/%d, want %d/%d", tc.name, d.AL1Attach, d.BL1Attach, tc.aAttach, tc.bAttach)
		}
		if d.ABKL1Attach != tc.abk || d.MinKL1CmpKL0 != tc.minK {
			t.Errorf("%s: abk=%d mink=%d, want %d/%d", tc.name, d.ABKL1Attach, d.MinKL1CmpKL0, tc.abk, tc.minK)
		}
		if d.L1.KA.IsFull() != tc.fullA || d.L1.NB.IsFull() != tc.fullB {
			t.Errorf("%s: resident flags ka=%v nb=%v", tc.name, d.L1.KA, d.L1.NB)
		}
		digits, err := DecodeTilingID(d.TilingID)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if digits != d.idDigits() {
			t.Errorf("%s: decoded %v, want %v", tc.name, digits, d.idDigits())
		}
		if digits[4] != 1 || digits[9] != int(tc.l1.Strategy) {
			t.Errorf("%s: digits %v do not carry l0 double buffering and strategy", tc.name, digits)
		}
	}
}

func TestAssembleRejectsZeroK(t *testing.T) {
	t.Parallel()

	_, err := Assemble(squareProblem(), testTarget(), CoreSplit{Batch: 1, N: 1, M: 1, H: 1},
		squareShape(), L0Tile{M: 8, N: 16}, L1Tile{KA: 2, KB: 2}, UBTile{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEncodeTilingID(t *testing.T) {
	t.Parallel()

	var zeros, fours, mixed [TilingIDDigits]int
	for i := range fours {
		fours[i] = 4
	}
	mixed[TilingIDDigits-1] = 3
	mixed[TilingIDDigits-2] = 1

	tests := []struct {
		digits [TilingIDDigits]int
		want   string
	}{
		{zeros, "0"},
		{fours, "48828124"},
		{mixed, "8"},
	}
	for _, tc := range tests {
		if got := EncodeTilingID(tc.digits); got != tc.want {
			t.Errorf("EncodeTilingID(%v) = %s, want %s", tc.digits, got, tc.want)
		}
		back, err := DecodeTilingID(tc.want)
		if err != nil || back != tc.digits {
			t.Errorf("DecodeTilingID(%s) = %v, %v", tc.want, back, err)
		}
	}
}

func TestDecodeTilingIDErrors(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "abc", "-1", "48828125"} {
		if _, err := DecodeTilingID(id); err == nil {
			t.Errorf("DecodeTilingID(%q): expected error", id)
		}
	}
}

func TestTileEncoding(t *testing.T) {
	t.Parallel()

	type layout struct {
		A Tile `json:"a" yaml:"a"`
		B Tile `json:"b" yaml:"b"`
	}
	in := layout{A: FullyResident, B: Explicit(6)}

	js, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(js) != `{"a":"full","b":6}` {
		t.Fatalf("json = %s", js)
	}
	var fromJSON layout
	if err := json.Unmarshal(js, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if fromJSON != in {
		t.Fatalf("json round trip = %+v", fromJSON)
	}

	ys, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ys), "a: full") || !strings.Contains(string(ys), "b: 6") {
		t.Fatalf("yaml = %s", ys)
	}
	var fromYAML layout
	if err := yaml.Unmarshal(ys, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if fromYAML != in {
		t.Fatalf("yaml round trip = %+v", fromYAML)
	}

	var bad layout
	if err := json.Unmarshal([]byte(`{"a":"half"}`), &bad); err == nil {
		t.Fatal("expected error for non-numeric tile")
	}
}

func TestTileAccessors(t *testing.T) {
	t.Parallel()

	if FullyResident.Size() != 0 || FullyResident.Resolve(12) != 12 || FullyResident.String() != "full" {
		t.Fatal("fully resident accessors")
	}
	e := Explicit(3)
	if e.IsFull() || e.Size() != 3 || e.Resolve(12) != 3 || e.String() != "3" {
		t.Fatal("explicit accessors")
	}
}

func TestDescriptorJSONRoundTrip(t *testing.T) {
	t.Parallel()

	d, err := GenTiling(context.Background(), resnetProblem(), testTarget())
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back Descriptor
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", back, d)
	}
}
