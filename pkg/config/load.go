package config

import (
	"bytes"
	_ "embed"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/slizzai/slizzai/pkg/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	cueCtx     *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".toml", ".yaml" or
// ".yml"), applies defaults and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse TOML config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to the zero config; required keys
		// are reported by Validate.
		if err := dec.Decode(&c); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse YAML config")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks required keys and the schema's range constraints.
// Defaults must already be applied.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "output_dir is required")
	}
	if c.WaterLimit == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "water_limit is required")
	}
	if c.SuperSamplerURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "super_sampler_url is required")
	}
	if err := errors.ValidateURL(c.SuperSamplerURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "super_sampler_url")
	}
	if err := errors.ValidateOutputDir(c.OutputDir); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output_dir")
	}

	def, err := schema()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compile config schema")
	}
	v := cueCtx.Encode(c)
	if err := v.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "encode config")
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config")
	}
	return nil
}

func schema() (cue.Value, error) {
	schemaOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if schemaErr = v.Err(); schemaErr != nil {
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Config"))
		schemaErr = schemaDef.Err()
	})
	return schemaDef, schemaErr
}
