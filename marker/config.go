// CLAUDE:SUMMARY Configuration struct, defaults and YAML loader for the marker service.
package marker

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/rangewrap/highlight"
)

// Config configures the marker service.
type Config struct {
	// Addr is the HTTP listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	Wrapper WrapperConfig `json:"wrapper" yaml:"wrapper"`

	// DefaultStyle is applied to highlights requested without a style.
	// Empty means wrappers carry no style attribute.
	DefaultStyle string `json:"default_style" yaml:"default_style"`

	// Sanitize strips scripts and unsafe attributes from opened documents.
	Sanitize bool `json:"sanitize" yaml:"sanitize"`

	// MaxDocumentSize is the largest accepted document (default: 10 MB).
	MaxDocumentSize int64 `json:"max_document_size" yaml:"max_document_size"`

	// MaxDocuments caps the number of open documents (default: 256).
	MaxDocuments int `json:"max_documents" yaml:"max_documents"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

// WrapperConfig describes the element wrapped around highlighted text.
type WrapperConfig struct {
	Tag  string `json:"tag" yaml:"tag"`
	Attr string `json:"attr" yaml:"attr"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Wrapper.Tag == "" {
		c.Wrapper.Tag = highlight.DefaultTag
	}
	if c.Wrapper.Attr == "" {
		c.Wrapper.Attr = highlight.DefaultAttr
	}
	if c.MaxDocumentSize <= 0 {
		c.MaxDocumentSize = 10 * 1024 * 1024
	}
	if c.MaxDocuments <= 0 {
		c.MaxDocuments = 256
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
