// Package targets loads the crawl target file and expands it into URLs.
package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Targets lists the base domains and paths to combine, plus optional
// request headers sent with every fetch.
type Targets struct {
	BaseDomains []string          `json:"base_domains" yaml:"base_domains"`
	Paths       []string          `json:"paths" yaml:"paths"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Load reads a JSON or YAML targets file. The extension picks the decoder.
// A file with no extension is tried as JSON, then YAML; any other extension
// is rejected.
func Load(path string) (Targets, error) {
	if strings.TrimSpace(path) == "" {
		return Targets{}, errors.New("targets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return Targets{}, fmt.Errorf("open targets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return Targets{}, fmt.Errorf("read targets file: %w", err)
	}

	t, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return Targets{}, err
	}
	if err := t.Validate(); err != nil {
		return Targets{}, fmt.Errorf("targets file %s: %w", path, err)
	}
	return t, nil
}

type unmarshalFn func([]byte, any) error

// Parse decodes data according to ext (".json", ".yaml", ".yml" or ""). An
// empty ext tries JSON first, then YAML.
func Parse(data []byte, ext string) (Targets, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var t Targets
		if err := d.fn(data, &t); err != nil {
			errs = append(errs, fmt.Errorf("decode %s targets: %w", d.name, err))
			continue
		}
		return t, nil
	}
	if len(errs) == 0 {
		return Targets{}, fmt.Errorf("targets file format %q not recognized (expected YAML or JSON)", ext)
	}
	return Targets{}, errors.Join(errs...)
}

// Validate requires at least one domain and one path, none of them blank.
func (t Targets) Validate() error {
	if len(t.BaseDomains) == 0 {
		return errors.New("base_domains must not be empty")
	}
	if len(t.Paths) == 0 {
		return errors.New("paths must not be empty")
	}
	for i, d := range t.BaseDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("base_domains[%d] is blank", i)
		}
	}
	for i, p := range t.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("paths[%d] is blank", i)
		}
	}
	return nil
}

// URLs returns every domain+path combination, domains in the outer loop.
// Entries are concatenated as given, with no normalization.
func (t Targets) URLs() []string {
	out := make([]string, 0, len(t.BaseDomains)*len(t.Paths))
	for _, d := range t.BaseDomains {
		for _, p := range t.Paths {
			out = append(out, d+p)
		}
	}
	return out
}

// RequestHeaders returns the configured headers with keys and values trimmed.
// Entries with an empty key or value are skipped.
func (t Targets) RequestHeaders() map[string]string {
	if len(t.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(t.Headers))
	for k, v := range t.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
