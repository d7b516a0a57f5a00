package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a YAML config file. The file's variant field selects the preset
// that the file is layered over; fields absent from the file keep their
// preset values. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the preset of its variant. fallback is used when
// the document does not name a variant; an empty fallback means Behavioural.
func Parse(data []byte, fallback Variant) (*Config, error) {
	var probe struct {
		Variant Variant `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	v := probe.Variant
	if v == "" {
		v = fallback
	}
	if v == "" {
		v = Behavioural
	}

	cfg, err := Preset(v)
	if err != nil {
		return nil, err
	}

	// Decoding into the preset keeps every field the document leaves out.
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.Variant = v

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config against the embedded CUE schema and then
// applies the cross-field rules the schema does not express.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	if _, err := c.Design(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, j := range map[string]Jitter{
		"timing.initial_fixation":  c.Timing.InitialFixation,
		"timing.post_cue_fixation": c.Timing.PostCueFixation,
	} {
		if err := j.validate(); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if c.Variant == FMRI && c.Prompts.ScannerTrigger == "" {
		return fmt.Errorf("invalid config: prompts.scanner_trigger is required for the %s variant", FMRI)
	}
	if c.Keys.Left == c.Keys.Right {
		return fmt.Errorf("invalid config: keys.left and keys.right must differ")
	}
	return nil
}

// UnmarshalYAML replaces the whole jitter, so a document naming one form
// drops the form a preset set.
func (j *Jitter) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i < len(value.Content); i += 2 {
			switch key := value.Content[i]; key.Value {
			case "fixed_ms", "choices_ms", "min_ms", "max_ms":
			default:
				return fmt.Errorf("line %d: field %s not found in type config.Jitter", key.Line, key.Value)
			}
		}
	}
	type plain Jitter
	var fresh plain
	if err := value.Decode(&fresh); err != nil {
		return err
	}
	*j = Jitter(fresh)
	return nil
}

func (j Jitter) validate() error {
	forms := 0
	if j.FixedMS > 0 {
		forms++
	}
	if len(j.ChoicesMS) > 0 {
		forms++
	}
	if j.MinMS > 0 || j.MaxMS > 0 {
		forms++
		if j.MaxMS < j.MinMS {
			return fmt.Errorf("max_ms %d is below min_ms %d", j.MaxMS, j.MinMS)
		}
	}
	if forms != 1 {
		return fmt.Errorf("exactly one of fixed_ms, choices_ms or min_ms/max_ms must be set")
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
