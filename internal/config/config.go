// Package config loads and validates the YAML configuration file.
//
// Secrets (archive password, SMTP password) are never stored in the file
// itself: the file names an environment variable and the value is resolved
// from the environment at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tis24dev/hypersave/internal/types"
)

// WildcardID is the VM policy identifier that holds global defaults.
const WildcardID = "*"

// VMPolicy is one per-VM policy entry. The wildcard entry ("*") carries the
// defaults; a named entry overrides the defaults for that VM only.
type VMPolicy struct {
	ID           string `yaml:"id"`
	Exclude      bool   `yaml:"exclude"`
	SkipChecksum bool   `yaml:"skip_checksum"`
	SkipVerify   bool   `yaml:"skip_verify"`

	// RunningOnly is only meaningful on the wildcard entry.
	RunningOnly bool `yaml:"running_only"`
}

// HypervisorConfig describes the hypervisor CLI used to enumerate and export VMs.
type HypervisorConfig struct {
	Binary string `yaml:"binary"`
}

// ArchiveConfig describes how archives are produced.
// An empty Tool selects the builtin tar+zstd+age archiver.
type ArchiveConfig struct {
	Tool        string `yaml:"tool"`
	PasswordEnv string `yaml:"password_env"`
	Extension   string `yaml:"extension"`

	// Password is resolved from PasswordEnv, never parsed from the file.
	Password string `yaml:"-"`
}

// ChecksumConfig selects the digest algorithm for archive sidecar files.
type ChecksumConfig struct {
	Algorithm types.DigestAlgorithm `yaml:"algorithm"`
}

// LocalConfig holds the local target paths and retention count.
type LocalConfig struct {
	ExportPath  string `yaml:"export_path"`
	ArchivePath string `yaml:"archive_path"`
	Retention   int    `yaml:"retention"`
}

// RemoteConfig is one remote storage target.
type RemoteConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Retention int    `yaml:"retention"`
	Type      string `yaml:"type"`
}

// NotifyConfig holds email notification settings.
type NotifyConfig struct {
	Enabled     bool     `yaml:"enabled"`
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
	Username    string   `yaml:"username"`
	PasswordEnv string   `yaml:"password_env"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`

	// Password is resolved from PasswordEnv, never parsed from the file.
	Password string `yaml:"-"`
}

// Config contains the complete application configuration.
type Config struct {
	LogLevel           string           `yaml:"log_level"`
	Hypervisor         HypervisorConfig `yaml:"hypervisor"`
	VMs                []VMPolicy       `yaml:"vms"`
	Archive            ArchiveConfig    `yaml:"archive"`
	Checksum           ChecksumConfig   `yaml:"checksum"`
	Local              LocalConfig      `yaml:"local"`
	Remotes            []RemoteConfig   `yaml:"remotes"`
	BandwidthLimit     string           `yaml:"bandwidth_limit"`
	MetricsTextfileDir string           `yaml:"metrics_textfile_dir"`
	Notify             NotifyConfig     `yaml:"notify"`
	LogPath            string           `yaml:"log_path"`

	// DryRun is set from the command line, not from the file.
	DryRun bool `yaml:"-"`
}

// Load reads, parses and normalizes the configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Checksum.Algorithm == "" {
		c.Checksum.Algorithm = types.DigestSHA256
	}
	if c.Archive.Extension == "" {
		if c.Archive.Tool != "" {
			c.Archive.Extension = "7z"
		} else {
			c.Archive.Extension = "tar.zst.age"
		}
	}
	if c.Archive.PasswordEnv == "" {
		c.Archive.PasswordEnv = "HYPERSAVE_ARCHIVE_PASSWORD"
	}
	if c.Notify.PasswordEnv == "" {
		c.Notify.PasswordEnv = "HYPERSAVE_SMTP_PASSWORD"
	}
	if c.Notify.SMTPPort == 0 {
		c.Notify.SMTPPort = 587
	}
	if c.Local.ExportPath == "" && c.Local.ArchivePath != "" {
		c.Local.ExportPath = filepath.Join(c.Local.ArchivePath, "exported")
	}
	if c.LogPath == "" && c.Local.ArchivePath != "" {
		c.LogPath = filepath.Join(c.Local.ArchivePath, "logs")
	}
}

// Validate checks structural consistency. Secrets are checked separately by
// ResolveSecrets so that check-config works without the environment set up.
func (c *Config) Validate() error {
	if c.Hypervisor.Binary == "" {
		return fmt.Errorf("hypervisor.binary is required")
	}
	if c.Local.ArchivePath == "" {
		return fmt.Errorf("local.archive_path is required")
	}
	if c.Local.ExportPath == "" {
		return fmt.Errorf("local.export_path is required")
	}
	if c.Local.Retention < 0 {
		return fmt.Errorf("local.retention must not be negative (got %d)", c.Local.Retention)
	}
	if !c.Checksum.Algorithm.Valid() {
		return fmt.Errorf("checksum.algorithm %q is not supported (sha256, sha512, blake2b)", c.Checksum.Algorithm)
	}

	seen := make(map[string]bool, len(c.Remotes))
	for i, r := range c.Remotes {
		if r.Name == "" {
			return fmt.Errorf("remotes[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("remotes[%d]: duplicate remote name %q", i, r.Name)
		}
		seen[r.Name] = true
		if r.Retention < 0 {
			return fmt.Errorf("remote %q: retention must not be negative (got %d)", r.Name, r.Retention)
		}
	}

	wildcards := 0
	vmSeen := make(map[string]bool, len(c.VMs))
	for i, vm := range c.VMs {
		if vm.ID == "" {
			return fmt.Errorf("vms[%d]: id is required", i)
		}
		if vm.ID == WildcardID {
			wildcards++
			if wildcards > 1 {
				return fmt.Errorf("vms: more than one wildcard entry")
			}
			continue
		}
		if vmSeen[vm.ID] {
			return fmt.Errorf("vms[%d]: duplicate entry for %q", i, vm.ID)
		}
		vmSeen[vm.ID] = true
	}

	if c.Notify.Enabled {
		if c.Notify.SMTPHost == "" {
			return fmt.Errorf("notify.smtp_host is required when notifications are enabled")
		}
		if c.Notify.From == "" {
			return fmt.Errorf("notify.from is required when notifications are enabled")
		}
		if len(c.Notify.To) == 0 {
			return fmt.Errorf("notify.to must list at least one recipient")
		}
	}

	return nil
}

// ResolveSecrets pulls the archive and SMTP passwords from the environment.
// The archive password is mandatory for a backup run; the SMTP password is
// only needed when notifications are enabled and the relay requires auth.
func (c *Config) ResolveSecrets() error {
	c.Archive.Password = strings.TrimSpace(os.Getenv(c.Archive.PasswordEnv))
	c.Notify.Password = strings.TrimSpace(os.Getenv(c.Notify.PasswordEnv))

	if c.Archive.Password == "" {
		return fmt.Errorf("archive password not set: export %s or configure archive.password_env", c.Archive.PasswordEnv)
	}
	return nil
}

// Wildcard returns the wildcard policy entry, or a zero-value default if the
// configuration has none.
func (c *Config) Wildcard() VMPolicy {
	for _, vm := range c.VMs {
		if vm.ID == WildcardID {
			return vm
		}
	}
	return VMPolicy{ID: WildcardID}
}

// PolicyFor returns the effective policy for a VM: the named entry when one
// exists, otherwise the wildcard defaults.
func (c *Config) PolicyFor(vmID string) VMPolicy {
	for _, vm := range c.VMs {
		if vm.ID == vmID {
			return vm
		}
	}
	w := c.Wildcard()
	w.ID = vmID
	return w
}

// ReservedDirNames returns the folder names excluded from local rotation:
// the scratch export folder and the log folder.
func (c *Config) ReservedDirNames() []string {
	names := []string{}
	if c.Local.ExportPath != "" {
		names = append(names, filepath.Base(c.Local.ExportPath))
	}
	if c.LogPath != "" {
		names = append(names, filepath.Base(c.LogPath))
	}
	return names
}
