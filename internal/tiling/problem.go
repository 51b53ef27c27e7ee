package tiling

// Problem is one fully resolved conv2d weight-gradient instance. dY
// (batch, Co, Ho, Wo) is operand A, the input feature map X (batch, Ci,
// Hi, Wi) is operand B and dW (Co, Ci, Kh, Kw) is the accumulated result.
//
// Co1 and Ci1 are the channel counts grouped into blocks of Target.BlockSize.
type Problem struct {
	Batch   int `json:"batch" yaml:"batch"`
	Ho      int `json:"ho" yaml:"ho"`
	Wo      int `json:"wo" yaml:"wo"`
	Hi      int `json:"hi" yaml:"hi"`
	Wi      int `json:"wi" yaml:"wi"`
	Co      int `json:"co" yaml:"co"`
	Co1     int `json:"co1" yaml:"co1"`
	Ci      int `json:"ci" yaml:"ci"`
	Ci1     int `json:"ci1" yaml:"ci1"`
	Kh      int `json:"kh" yaml:"kh"`
	Kw      int `json:"kw" yaml:"kw"`
	StrideH int `json:"stride_h" yaml:"stride_h"`
	StrideW int `json:"stride_w" yaml:"stride_w"`

	// Fused elementwise operations staged through each local buffer.
	FusedA int `json:"fused_a" yaml:"fused_a"`
	FusedB int `json:"fused_b" yaml:"fused_b"`
	FusedC int `json:"fused_c" yaml:"fused_c"`

	// Element byte widths of dY, X and dW.
	BytesA int `json:"bytes_a" yaml:"bytes_a"`
	BytesB int `json:"bytes_b" yaml:"bytes_b"`
	BytesC int `json:"bytes_c" yaml:"bytes_c"`
}

// Validate checks the problem against a block size.
func (p Problem) Validate(blockSize int) error {
	const stage = "problem"
	if blockSize <= 0 {
		return invalidf(stage, "block size must be > 0, got %d", blockSize)
	}
	dims := []struct {
		name string
		v    int
	}{
		{"batch", p.Batch},
		{"ho", p.Ho}, {"wo", p.Wo},
		{"hi", p.Hi}, {"wi", p.Wi},
		{"co", p.Co}, {"co1", p.Co1},
		{"ci", p.Ci}, {"ci1", p.Ci1},
		{"kh", p.Kh}, {"kw", p.Kw},
		{"stride_h", p.StrideH}, {"stride_w", p.StrideW},
		{"bytes_a", p.BytesA}, {"bytes_b", p.BytesB}, {"bytes_c", p.BytesC},
	}
	for _, d := range dims {
		if d.v <= 0 {
			return invalidf(stage, "%s must be > 0, got %d", d.name, d.v)
		}
	}
	if p.FusedA < 0 || p.FusedB < 0 || p.FusedC < 0 {
		return invalidf(stage, "fused op counts must be >= 0")
	}
	if p.Co1*blockSize < p.Co {
		return invalidf(stage, "co1=%d does not cover co=%d at block size %d", p.Co1, p.Co, blockSize)
	}
	if p.Ci1*blockSize < p.Ci {
		return invalidf(stage, "ci1=%d does not cover ci=%d at block size %d", p.Ci1, p.Ci, blockSize)
	}
	return nil
}

// KernelArea is Kh*Kw, the number of N blocks per channel group.
func (p Problem) KernelArea() int {
	return p.Kh * p.Kw
}

// L0Preset is one parameter set for the accumulator-cache search.
// TargetM/N/K are soft per-axis aims in blocks; capacity is the hard limit.
type L0Preset struct {
	Name          string `json:"name" yaml:"name"`
	DoubleBufferA bool   `json:"double_buffer_a" yaml:"double_buffer_a"`
	DoubleBufferB bool   `json:"double_buffer_b" yaml:"double_buffer_b"`
	DoubleBufferC bool   `json:"double_buffer_c" yaml:"double_buffer_c"`
	TargetM       int    `json:"target_m" yaml:"target_m"`
	TargetN       int    `json:"target_n" yaml:"target_n"`
	TargetK       int    `json:"target_k" yaml:"target_k"`
	// FullK aims the K tile at the largest admissible value.
	FullK bool `json:"full_k" yaml:"full_k"`
	// NFirst picks the N tile before the M tile.
	NFirst bool `json:"n_first" yaml:"n_first"`
}

// Target describes the accelerator. Sizes are in bytes.
//
// Presets[0] is the double-buffered default; Presets[1] is only chosen when
// it measurably improves accumulator occupancy or traffic.
type Target struct {
	Name           string      `json:"name" yaml:"name"`
	CoreNum        int         `json:"core_num" yaml:"core_num"`
	BlockSize      int         `json:"block_size" yaml:"block_size"`
	L0ASize        int         `json:"l0a_size" yaml:"l0a_size"`
	L0BSize        int         `json:"l0b_size" yaml:"l0b_size"`
	L0CSize        int         `json:"l0c_size" yaml:"l0c_size"`
	L1Size         int         `json:"l1_size" yaml:"l1_size"`
	UBSize         int         `json:"ub_size" yaml:"ub_size"`
	UBElementBytes int         `json:"ub_element_bytes" yaml:"ub_element_bytes"`
	Presets        [2]L0Preset `json:"presets" yaml:"presets"`
}

// Validate checks that every capacity and divisor constant is usable.
func (t Target) Validate() error {
	const stage = "target"
	vals := []struct {
		name string
		v    int
	}{
		{"core_num", t.CoreNum},
		{"block_size", t.BlockSize},
		{"l0a_size", t.L0ASize},
		{"l0b_size", t.L0BSize},
		{"l0c_size", t.L0CSize},
		{"l1_size", t.L1Size},
		{"ub_size", t.UBSize},
		{"ub_element_bytes", t.UBElementBytes},
	}
	for _, v := range vals {
		if v.v <= 0 {
			return invalidf(stage, "%s %q must be > 0, got %d", t.Name, v.name, v.v)
		}
	}
	for i, ps := range t.Presets {
		if ps.TargetM <= 0 || ps.TargetN <= 0 || ps.TargetK <= 0 {
			return invalidf(stage, "%s preset %d (%q) needs positive targets", t.Name, i, ps.Name)
		}
	}
	return nil
}

// CoreSplit holds the core-partition factor of each logical axis.
type CoreSplit struct {
	Batch int `json:"batch" yaml:"batch"`
	N     int `json:"n" yaml:"n"`
	M     int `json:"m" yaml:"m"`
	H     int `json:"h" yaml:"h"`
}

// Cores is the number of cores the split occupies.
func (c CoreSplit) Cores() int {
	return c.Batch * c.N * c.M * c.H
}

// SingleCoreShape is the sub-problem one core executes. M, N and K are in
// blocks; Ho is in output rows.
type SingleCoreShape struct {
	Batch int `json:"batch" yaml:"batch"`
	M     int `json:"m" yaml:"m"`
	N     int `json:"n" yaml:"n"`
	Ho    int `json:"ho" yaml:"ho"`
	K     int `json:"k" yaml:"k"`
}

func (s SingleCoreShape) validate(stage string) error {
	if s.Batch <= 0 || s.M <= 0 || s.N <= 0 || s.Ho <= 0 || s.K <= 0 {
		return invalidf(stage, "single-core shape must be positive, got %+v", s)
	}
	return nil
}
