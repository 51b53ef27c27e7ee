package tiling

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const fullTileText = "full"

// Tile is a shared-cache tile extent: either an explicit block count or
// FullyResident, meaning the code generator derives it from the
// single-core shape.
type Tile struct {
	n    int
	full bool
}

// FullyResident marks an operand that is loaded once for the whole core.
var FullyResident = Tile{full: true}

// Explicit returns a tile of n blocks.
func Explicit(n int) Tile {
	return Tile{n: n}
}

func (t Tile) IsFull() bool {
	return t.full
}

// Size returns the explicit extent, or 0 for a fully resident tile.
func (t Tile) Size() int {
	if t.full {
		return 0
	}
	return t.n
}

// Resolve returns the extent in blocks, using extent for a resident tile.
func (t Tile) Resolve(extent int) int {
	if t.full {
		return extent
	}
	return t.n
}

func (t Tile) String() string {
	if t.full {
		return fullTileText
	}
	return strconv.Itoa(t.n)
}

func (t Tile) MarshalJSON() ([]byte, error) {
	if t.full {
		return []byte(`"` + fullTileText + `"`), nil
	}
	return []byte(strconv.Itoa(t.n)), nil
}

func (t *Tile) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte(`"`+fullTileText+`"`)) {
		*t = FullyResident
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tile: %w", err)
	}
	*t = Explicit(n)
	return nil
}

func (t Tile) MarshalYAML() (any, error) {
	if t.full {
		return fullTileText, nil
	}
	return t.n, nil
}

func (t *Tile) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == fullTileText {
		*t = FullyResident
		return nil
	}
	var n int
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("tile: %w", err)
	}
	*t = Explicit(n)
	return nil
}
