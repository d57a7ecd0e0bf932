package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Encoding is a configuration file format.
type Encoding string

const (
	EncodingYAML Encoding = "yaml"
	EncodingTOML Encoding = "toml"
)

// EncodingFor picks the format of a configuration file by extension.
// Anything but .toml is YAML.
func EncodingFor(path string) Encoding {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return EncodingTOML
	}
	return EncodingYAML
}

// Encode serializes c. A non-empty header is written first, followed by a
// blank line.
func (c *Config) Encode(enc Encoding, header string) ([]byte, error) {
	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(strings.TrimRight(header, "\n"))
		buf.WriteString("\n\n")
	}
	if c == nil {
		return buf.Bytes(), nil
	}

	switch enc {
	case EncodingTOML:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	case EncodingYAML:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(c); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config encoding %q", enc)
	}
	return buf.Bytes(), nil
}

// Decode parses a configuration. Fields missing from data keep their zero
// value. Keys that match no field are returned rather than failing.
func Decode(enc Encoding, data []byte) (*Config, []string, error) {
	switch enc {
	case EncodingTOML:
		return decodeTOML(data)
	case EncodingYAML:
		return decodeYAML(data)
	default:
		return nil, nil, fmt.Errorf("unknown config encoding %q", enc)
	}
}

func decodeTOML(data []byte) (*Config, []string, error) {
	cfg := &Config{}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parse toml: %w", err)
	}

	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return cfg, unknown, nil
}

// unknownYAMLField matches the yaml.v3 message for a key with no field.
var unknownYAMLField = regexp.MustCompile(`^line \d+: field (\S+) not found in type `)

func decodeYAML(data []byte) (*Config, []string, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(cfg)
	if err == nil || errors.Is(err, io.EOF) {
		return cfg, nil, nil
	}

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}

	var unknown, failures []string
	for _, msg := range typeErr.Errors {
		if m := unknownYAMLField.FindStringSubmatch(msg); m != nil {
			unknown = append(unknown, m[1])
			continue
		}
		failures = append(failures, msg)
	}
	if len(failures) > 0 {
		return nil, nil, fmt.Errorf("parse yaml: %s", strings.Join(failures, "; "))
	}
	return cfg, unknown, nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Exclude.Fences = slices.Clone(c.Exclude.Fences)
	return &clone
}
