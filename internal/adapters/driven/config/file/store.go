// Package file implements the TOML configuration store. Configuration is
// loaded once at startup into an explicit struct and passed by reference
// into each component; there is no ambient state.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// DefaultMTLSDir is where mTLS certificate material lives unless the
// [mtls] section overrides the individual paths.
const DefaultMTLSDir = "~/.config/cauth"

// target mirrors a [targets.<name>] section.
type target struct {
	Username string `toml:"username"`
	Password string `toml:"password,omitempty"`
}

// post mirrors the [post] section.
type post struct {
	URL string `toml:"url"`
}

// mtls mirrors the [mtls] section.
type mtls struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// graph mirrors the [graph] section.
type graph struct {
	TenantID string `toml:"tenant_id"`
	ClientID string `toml:"client_id"`
}

// Config is the parsed configuration file. Immutable for the process
// lifetime once loaded.
type Config struct {
	Targets map[string]target `toml:"targets"`
	Post    post              `toml:"post"`
	MTLS    mtls              `toml:"mtls"`
	Graph   graph             `toml:"graph"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "outcal", "config.toml"), nil
}

// Load reads and parses the configuration at path. An empty path selects
// DefaultPath. A missing file yields an empty configuration rather than
// an error, so listing targets on a fresh install works.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{Targets: map[string]target{}}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigInvalid, path, err)
	}
	if cfg.Targets == nil {
		cfg.Targets = map[string]target{}
	}

	return &cfg, nil
}

// Target returns the profile for a named target.
func (c *Config) Target(name string) (domain.TargetProfile, error) {
	t, ok := c.Targets[name]
	if !ok || t.Username == "" {
		return domain.TargetProfile{}, fmt.Errorf("%w: %q", domain.ErrTargetNotFound, name)
	}
	return domain.TargetProfile{
		Name:     name,
		Username: t.Username,
		Password: t.Password,
	}, nil
}

// TargetNames returns the configured target names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetUsername returns the username for a target, or an empty string.
func (c *Config) TargetUsername(name string) string {
	return c.Targets[name].Username
}

// PostURL returns the configured POST destination.
func (c *Config) PostURL() (string, error) {
	if c.Post.URL == "" {
		return "", domain.ErrNoPostURL
	}
	return c.Post.URL, nil
}

// MTLSPaths resolves the mTLS certificate paths, filling unset entries
// from DefaultMTLSDir, and verifies that all three files exist. Absence
// of any of them is a configuration error, caught before any network
// attempt is made.
func (c *Config) MTLSPaths() (domain.MTLSPaths, error) {
	paths := domain.MTLSPaths{
		CA:   orDefault(c.MTLS.CA, filepath.Join(DefaultMTLSDir, "ca.pem")),
		Cert: orDefault(c.MTLS.Cert, filepath.Join(DefaultMTLSDir, "crt.pem")),
		Key:  orDefault(c.MTLS.Key, filepath.Join(DefaultMTLSDir, "key.pem")),
	}

	var err error
	if paths.CA, err = expandHome(paths.CA); err != nil {
		return domain.MTLSPaths{}, err
	}
	if paths.Cert, err = expandHome(paths.Cert); err != nil {
		return domain.MTLSPaths{}, err
	}
	if paths.Key, err = expandHome(paths.Key); err != nil {
		return domain.MTLSPaths{}, err
	}

	for _, p := range []struct{ kind, path string }{
		{"ca", paths.CA},
		{"cert", paths.Cert},
		{"key", paths.Key},
	} {
		if _, err := os.Stat(p.path); err != nil {
			return domain.MTLSPaths{}, fmt.Errorf("%w: %s file %s", domain.ErrMTLSIncomplete, p.kind, p.path)
		}
	}

	return paths, nil
}

// GraphApp returns the Azure app registration for the Graph variant.
func (c *Config) GraphApp() (domain.GraphApp, error) {
	if c.Graph.TenantID == "" || c.Graph.ClientID == "" {
		return domain.GraphApp{}, domain.ErrGraphAppMissing
	}
	return domain.GraphApp{TenantID: c.Graph.TenantID, ClientID: c.Graph.ClientID}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
