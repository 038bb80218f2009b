package level

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"gridfactory.dev/internal/sim/factory"
)

const (
	DefaultTickSeconds = 1.0 / 3.0
	DefaultFrameRateHz = 60
)

// Level is the session setup document.
type Level struct {
	Name        string  `yaml:"name" json:"name,omitempty"`
	WorldSize   [2]int  `yaml:"world_size" json:"world_size"`
	TickRateHz  float64 `yaml:"tick_rate_hz,omitempty" json:"tick_rate_hz,omitempty"`
	TickSeconds float64 `yaml:"tick_seconds,omitempty" json:"tick_seconds,omitempty"`
	FrameRateHz int     `yaml:"frame_rate_hz,omitempty" json:"frame_rate_hz,omitempty"`
	Inputs      []Input `yaml:"inputs" json:"inputs"`
}

type Input struct {
	Cell  [2]int `yaml:"cell" json:"cell"`
	Every int    `yaml:"every" json:"every"`
	Item  string `yaml:"item" json:"item"`
}

// Default is the built-in sandbox: 8x8, one ore input at the origin every
// second tick, three ticks per second.
func Default() Level {
	return Level{
		Name:        "default",
		WorldSize:   [2]int{8, 8},
		TickSeconds: DefaultTickSeconds,
		FrameRateHz: DefaultFrameRateHz,
		Inputs: []Input{
			{Cell: [2]int{0, 0}, Every: 2, Item: string(factory.ItemOre)},
		},
	}
}

// Load reads a level file. An empty path yields Default().
func Load(path string) (Level, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Level{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Level, error) {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Level{}, fmt.Errorf("level.yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validateDoc(doc); err != nil {
		return Level{}, fmt.Errorf("level.yaml: %w", err)
	}

	var lv Level
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&lv); err != nil && !errors.Is(err, io.EOF) {
		return Level{}, fmt.Errorf("level.yaml: %w", err)
	}
	lv.Normalize()
	if err := lv.Validate(); err != nil {
		return Level{}, fmt.Errorf("level.yaml: %w", err)
	}
	return lv, nil
}

// Normalize fills unset fields from the defaults.
func (lv *Level) Normalize() {
	d := Default()
	if strings.TrimSpace(lv.Name) == "" {
		lv.Name = d.Name
	}
	if lv.WorldSize == [2]int{} {
		lv.WorldSize = d.WorldSize
	}
	if lv.TickSeconds <= 0 {
		if lv.TickRateHz > 0 {
			lv.TickSeconds = 1 / lv.TickRateHz
		} else {
			lv.TickSeconds = d.TickSeconds
		}
	}
	lv.TickRateHz = 0
	if lv.FrameRateHz <= 0 {
		lv.FrameRateHz = d.FrameRateHz
	}
	if lv.Inputs == nil {
		lv.Inputs = d.Inputs
	}
}

func (lv Level) Validate() error {
	w, h := lv.WorldSize[0], lv.WorldSize[1]
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: world_size %dx%d", factory.ErrBadDimensions, w, h)
	}
	if lv.TickPeriod() <= 0 {
		return fmt.Errorf("%w: tick_seconds %v", factory.ErrBadPeriod, lv.TickSeconds)
	}
	if lv.FrameRateHz < 1 {
		return fmt.Errorf("frame_rate_hz must be >= 1")
	}
	seen := map[[2]int]bool{}
	for i, in := range lv.Inputs {
		if in.Cell[0] < 0 || in.Cell[0] >= w || in.Cell[1] < 0 || in.Cell[1] >= h {
			return fmt.Errorf("%w: inputs[%d] cell %v outside %dx%d", factory.ErrBadSpawner, i, in.Cell, w, h)
		}
		if in.Every < 1 {
			return fmt.Errorf("%w: inputs[%d] every %d < 1", factory.ErrBadSpawner, i, in.Every)
		}
		if !knownItem(in.Item) {
			return fmt.Errorf("%w: inputs[%d] unknown item %q", factory.ErrBadSpawner, i, in.Item)
		}
		if seen[in.Cell] {
			return fmt.Errorf("%w: inputs[%d] duplicate cell %v", factory.ErrBadSpawner, i, in.Cell)
		}
		seen[in.Cell] = true
	}
	return nil
}

func (lv Level) TickPeriod() time.Duration { return factory.SecondsToDuration(lv.TickSeconds) }

func (lv Level) FramePeriod() time.Duration {
	if lv.FrameRateHz <= 0 {
		return time.Second / DefaultFrameRateHz
	}
	return time.Second / time.Duration(lv.FrameRateHz)
}

func (lv Level) ToConfig() factory.Config {
	cfg := factory.Config{
		Width:      lv.WorldSize[0],
		Height:     lv.WorldSize[1],
		TickPeriod: lv.TickPeriod(),
	}
	for _, in := range lv.Inputs {
		cfg.Spawners = append(cfg.Spawners, factory.SpawnerConfig{
			Cell:   factory.CellFromArray(in.Cell),
			Kind:   factory.ItemKind(in.Item),
			Period: in.Every,
		})
	}
	return cfg
}

// Digest identifies a normalized level; replays refuse a log recorded
// against a different one.
func (lv Level) Digest() string {
	b, _ := json.Marshal(lv)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func knownItem(s string) bool {
	for _, k := range factory.KnownItemKinds() {
		if string(k) == s {
			return true
		}
	}
	return false
}

//go:embed level.schema.json
var levelSchemaJSON string

const levelSchemaURL = "https://gridfactory.dev/schemas/level.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func levelSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(levelSchemaURL, strings.NewReader(levelSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(levelSchemaURL)
	})
	return schema, schemaErr
}

// validateDoc checks a decoded YAML document against the level schema. The
// document is passed through JSON first so numbers have JSON types.
func validateDoc(doc any) error {
	s, err := levelSchema()
	if err != nil {
		return fmt.Errorf("compile level schema: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
