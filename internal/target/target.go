// Package target holds the registry of accelerator descriptions the planner
// can tile for. Built-in targets are embedded YAML files; more can be loaded
// from a directory at startup.
package target

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cubetile/internal/tiling"
)

//go:embed targets/*.yaml
var builtinFS embed.FS

// EnvTargetsDir names the environment variable holding an extra targets
// directory.
const EnvTargetsDir = "CUBETILE_TARGETS_DIR"

const defaultBlockSize = 16

// ErrUnknownTarget is returned by Lookup for a name that is not registered.
var ErrUnknownTarget = errors.New("unknown target")

// file is the on-disk shape of a target. Presets is a list so a file with
// the wrong number of presets is reported instead of silently truncated.
type file struct {
	Name           string            `yaml:"name"`
	CoreNum        int               `yaml:"core_num"`
	BlockSize      int               `yaml:"block_size"`
	L0ASize        int               `yaml:"l0a_size"`
	L0BSize        int               `yaml:"l0b_size"`
	L0CSize        int               `yaml:"l0c_size"`
	L1Size         int               `yaml:"l1_size"`
	UBSize         int               `yaml:"ub_size"`
	UBElementBytes int               `yaml:"ub_element_bytes"`
	Presets        []tiling.L0Preset `yaml:"presets"`
}

// Parse decodes and validates one YAML target document.
func Parse(data []byte) (tiling.Target, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return tiling.Target{}, fmt.Errorf("decode target: %w", err)
	}
	if strings.TrimSpace(f.Name) == "" {
		return tiling.Target{}, fmt.Errorf("target has no name")
	}
	if len(f.Presets) != 2 {
		return tiling.Target{}, fmt.Errorf("target %s: want 2 l0 presets, got %d", f.Name, len(f.Presets))
	}
	if f.BlockSize == 0 {
		f.BlockSize = defaultBlockSize
	}

	t := tiling.Target{
		Name:           f.Name,
		CoreNum:        f.CoreNum,
		BlockSize:      f.BlockSize,
		L0ASize:        f.L0ASize,
		L0BSize:        f.L0BSize,
		L0CSize:        f.L0CSize,
		L1Size:         f.L1Size,
		UBSize:         f.UBSize,
		UBElementBytes: f.UBElementBytes,
		Presets:        [2]tiling.L0Preset{f.Presets[0], f.Presets[1]},
	}
	if err := t.Validate(); err != nil {
		return tiling.Target{}, err
	}
	return t, nil
}

// Registry maps target names to descriptions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]tiling.Target
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]tiling.Target)}
}

// Builtin returns a registry holding the embedded targets.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	if err := r.loadFS(builtinFS, "targets"); err != nil {
		return nil, fmt.Errorf("builtin targets: %w", err)
	}
	return r, nil
}

// Load returns the built-in targets overlaid with the files in dir. An
// empty dir falls back to $CUBETILE_TARGETS_DIR; if both are empty only the
// built-in targets are returned.
func Load(dir string) (*Registry, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = os.Getenv(EnvTargetsDir)
	}
	if dir == "" {
		return r, nil
	}
	if err := r.LoadDir(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadDir adds every *.yaml and *.yml file in dir. A file whose target
// name is already registered replaces the earlier definition.
func (r *Registry) LoadDir(dir string) error {
	return r.loadFS(os.DirFS(dir), ".")
}

func (r *Registry) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		t, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		r.Add(t)
	}
	return nil
}

// Add registers t under its name.
func (r *Registry) Add(t tiling.Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[t.Name] = t
}

// Lookup returns the target registered as name.
func (r *Registry) Lookup(name string) (tiling.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	if !ok {
		return tiling.Target{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownTarget, name, strings.Join(r.names(), ", "))
	}
	return t, nil
}

// Names lists the registered target names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := lo.Keys(r.targets)
	slices.Sort(names)
	return names
}

// All returns every registered target sorted by name.
func (r *Registry) All() []tiling.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.names(), func(name string, _ int) tiling.Target {
		return r.targets[name]
	})
}
