// Package planfile reads problem files and writes planning results.
// Problems may be YAML or JSON; results are written as indented JSON or
// YAML.
package planfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cubetile/internal/tiling"
)

// Format selects the encoding of a file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected json or yaml)", s)
	}
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%s: no file extension", path)
	}
	return ParseFormat(ext)
}

// Report is the document written by the plan command: the problem, the
// descriptor chosen for it and the resulting per-level byte usage.
type Report struct {
	Problem    tiling.Problem    `json:"problem" yaml:"problem"`
	Descriptor tiling.Descriptor `json:"descriptor" yaml:"descriptor"`
	Footprints tiling.Footprints `json:"footprints" yaml:"footprints"`
}

// LoadProblem reads a problem file, choosing the decoder by extension.
func LoadProblem(path string) (tiling.Problem, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return tiling.Problem{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tiling.Problem{}, err
	}
	p, err := DecodeProblem(data, format)
	if err != nil {
		return tiling.Problem{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// DecodeProblem decodes one problem document. Unknown keys are rejected so
// a misspelt dimension is not silently left at zero.
func DecodeProblem(data []byte, format Format) (tiling.Problem, error) {
	var p tiling.Problem
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return tiling.Problem{}, fmt.Errorf("decode problem: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return tiling.Problem{}, fmt.Errorf("decode problem: %w", err)
		}
	default:
		return tiling.Problem{}, fmt.Errorf("unsupported format %q", format)
	}
	return p, nil
}

// FillChannelGroups derives Co1 and Ci1 from Co and Ci when a problem file
// leaves them out.
func FillChannelGroups(p *tiling.Problem, blockSize int) {
	if blockSize <= 0 {
		return
	}
	if p.Co1 == 0 && p.Co > 0 {
		p.Co1 = (p.Co + blockSize - 1) / blockSize
	}
	if p.Ci1 == 0 && p.Ci > 0 {
		p.Ci1 = (p.Ci + blockSize - 1) / blockSize
	}
}

// Encode writes v in the given format with a trailing newline.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		b = append(b, '\n')
		_, err = w.Write(b)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
