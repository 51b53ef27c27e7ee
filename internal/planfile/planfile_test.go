package planfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cubetile/internal/tiling"
)

const problemYAML = `
batch: 2
ho: 14
wo: 14
hi: 14
wi: 14
co: 64
ci: 32
kh: 3
kw: 3
stride_h: 1
stride_w: 1
fused_c: 1
bytes_a: 2
bytes_b: 2
bytes_c: 4
`

const problemJSON = `{
  "batch": 2, "ho": 14, "wo": 14, "hi": 14, "wi": 14,
  "co": 64, "co1": 4, "ci": 32, "ci1": 2,
  "kh": 3, "kw": 3, "stride_h": 1, "stride_w": 1,
  "fused_c": 1, "bytes_a": 2, "bytes_b": 2, "bytes_c": 4
}`

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"json", FormatJSON, true},
		{"YAML", FormatYAML, true},
		{" yml ", FormatYAML, true},
		{"toml", "", false},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
	if _, err := FormatForPath("problem"); err == nil {
		t.Error("expected error for path without extension")
	}
}

func TestLoadProblem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	if err := os.WriteFile(yamlPath, []byte(problemYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(problemJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	fromYAML, err := LoadProblem(yamlPath)
	if err != nil {
		t.Fatalf("LoadProblem(yaml): %v", err)
	}
	FillChannelGroups(&fromYAML, 16)

	fromJSON, err := LoadProblem(jsonPath)
	if err != nil {
		t.Fatalf("LoadProblem(json): %v", err)
	}
	if fromYAML != fromJSON {
		t.Fatalf("yaml and json problems differ:\n%+v\n%+v", fromYAML, fromJSON)
	}
	if fromJSON.FusedC != 1 || fromJSON.StrideH != 1 || fromJSON.Ci1 != 2 {
		t.Fatalf("problem = %+v", fromJSON)
	}
}

func TestDecodeProblemRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := DecodeProblem([]byte("batch: 1\nstride: 2\n"), FormatYAML); err == nil {
		t.Error("yaml: expected error for unknown key")
	}
	if _, err := DecodeProblem([]byte(`{"batch":1,"strides":2}`), FormatJSON); err == nil {
		t.Error("json: expected error for unknown key")
	}
	if _, err := DecodeProblem([]byte(`{}`), Format("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFillChannelGroupsKeepsExplicit(t *testing.T) {
	t.Parallel()

	p := tiling.Problem{Co: 17, Ci: 3, Co1: 4}
	FillChannelGroups(&p, 16)
	if p.Co1 != 4 || p.Ci1 != 1 {
		t.Fatalf("Co1=%d Ci1=%d, want 4 and 1", p.Co1, p.Ci1)
	}
}

func testTarget() tiling.Target {
	return tiling.Target{
		Name:           "t",
		CoreNum:        8,
		BlockSize:      16,
		L0ASize:        64 << 10,
		L0BSize:        64 << 10,
		L0CSize:        128 << 10,
		L1Size:         512 << 10,
		UBSize:         192 << 10,
		UBElementBytes: 4,
		Presets: [2]tiling.L0Preset{
			{Name: "db-on", DoubleBufferA: true, DoubleBufferB: true, DoubleBufferC: true, TargetM: 4, TargetN: 16, TargetK: 4},
			{Name: "db-off", TargetM: 4, TargetN: 8, TargetK: 8, FullK: true},
		},
	}
}

func TestEncodeReport(t *testing.T) {
	t.Parallel()

	p, err := DecodeProblem([]byte(problemJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	tgt := testTarget()
	d, err := tiling.GenTiling(context.Background(), p, tgt)
	if err != nil {
		t.Fatal(err)
	}
	f, err := d.Footprints(p, tgt)
	if err != nil {
		t.Fatal(err)
	}
	rep := Report{Problem: p, Descriptor: d, Footprints: f}

	var js bytes.Buffer
	if err := Encode(&js, rep, FormatJSON); err != nil {
		t.Fatalf("Encode(json): %v", err)
	}
	if !strings.HasSuffix(js.String(), "}\n") || !strings.Contains(js.String(), `"tiling_id": "`+d.TilingID+`"`) {
		t.Fatalf("json report:\n%s", js.String())
	}
	var backJSON Report
	if err := json.Unmarshal(js.Bytes(), &backJSON); err != nil {
		t.Fatal(err)
	}
	if backJSON != rep {
		t.Fatalf("json round trip mismatch")
	}

	var ys bytes.Buffer
	if err := Encode(&ys, rep, FormatYAML); err != nil {
		t.Fatalf("Encode(yaml): %v", err)
	}
	if !strings.Contains(ys.String(), "strategy: "+d.L1.Strategy.String()) {
		t.Fatalf("yaml report:\n%s", ys.String())
	}
	var backYAML Report
	if err := yaml.Unmarshal(ys.Bytes(), &backYAML); err != nil {
		t.Fatal(err)
	}
	if backYAML != rep {
		t.Fatalf("yaml round trip mismatch:\n%+v\n%+v", backYAML, rep)
	}

	if err := Encode(&bytes.Buffer{}, rep, Format("csv")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
