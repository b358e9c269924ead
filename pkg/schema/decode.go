package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
)

// Format is a serialization format for schema documents.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats in lookup order.
var Formats = []Format{FormatJSON, FormatTOML, FormatYAML}

// Extensions returns the file extensions recognized for f.
func (f Format) Extensions() []string {
	switch f {
	case FormatJSON:
		return []string{".json"}
	case FormatTOML:
		return []string{".toml"}
	case FormatYAML:
		return []string{".yaml", ".yml"}
	}
	return nil
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, nil
			}
		}
	}
	return "", perrors.New(perrors.ErrCodeInvalidFormat, "unsupported template extension %q (must be .json, .toml, .yaml or .yml)", ext)
}

// Decode parses a schema document.
//
// TOML and YAML documents are first decoded into generic maps and then
// re-encoded as JSON, so every format shares the JSON field names.
func Decode(data []byte, format Format) (*Schema, error) {
	raw, err := normalize(data, format)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	return &s, nil
}

// DecodeData parses a data record for bindings. Numbers decode as
// float64, matching records built from JSON.
func DecodeData(data []byte, format Format) (any, error) {
	raw, err := normalize(data, format)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s data", format)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s data", format)
	}
	return v, nil
}

// ReadFile decodes the schema stored at path, inferring the format from its extension.
func ReadFile(path string) (*Schema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes s as JSON. Map keys are sorted, so equal schemas
// produce equal bytes.
func Marshal(s *Schema) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes s as indented JSON to w.
func Write(s *Schema, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return json.Marshal(m)
	case FormatYAML:
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return json.Marshal(m)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
