package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the saved oracle configuration spec.md §9 and SPEC_FULL.md's
// ambient-stack section call for: a full oracle profile (headers, keyword,
// proxy, timing) that can be replayed across runs instead of re-typed as
// flags every time — real CTF usage iterates against the same target many
// times. CLI flags always override a loaded Profile's fields.
type Profile struct {
	Oracle      string            `yaml:"oracle"`
	URL         string            `yaml:"url,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
	Keyword     string            `yaml:"keyword,omitempty"`
	Script      string            `yaml:"script,omitempty"`
	BlockSize   int               `yaml:"block_size,omitempty"`
	NoIV        bool              `yaml:"no_iv,omitempty"`
	Encoding    string            `yaml:"encoding,omitempty"`
	Delay       time.Duration     `yaml:"delay,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	ProxyURL    string            `yaml:"proxy_url,omitempty"`
	ProxyUser   string            `yaml:"proxy_user,omitempty"`
	ProxyPass   string            `yaml:"proxy_pass,omitempty"`
	UserAgent    string           `yaml:"user_agent,omitempty"`
	ConsiderBody bool             `yaml:"consider_body,omitempty"`
}

// LoadProfile reads and parses a YAML oracle profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &p, nil
}
