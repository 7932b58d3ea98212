// Package blueprint manages the local cache of the asimov-data blueprint
// repository and reads its documents
package blueprint

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	perr "gwdata/internal/platform/errors"
	"gwdata/internal/platform/logger"
)

const (
	defaultRemote = "https://git.ligo.org/asimov/data.git"
	// envOverride points at an existing checkout and skips git entirely
	envOverride    = "ASIMOV_DATA_PATH"
	updateInterval = 7 * 24 * time.Hour
)

// GitRunner executes git commands; swapped out in tests
type GitRunner interface {
	Run(ctx context.Context, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "git %s: %s", args[0], string(out))
	}
	return nil
}

type metadata struct {
	LastUpdate time.Time `yaml:"last_update"`
	RemoteURL  string    `yaml:"remote_url"`
}

// Repository is the cached blueprint checkout under ~/.asimov/gwdata
type Repository struct {
	CacheDir string
	RepoDir  string
	Remote   string

	Git GitRunner
	now func() time.Time
}

// NewRepository builds a repository manager; an empty remote uses the
// official asimov-data repository
func NewRepository(remote string) *Repository {
	if remote == "" {
		remote = defaultRemote
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cache := filepath.Join(home, ".asimov", "gwdata")
	return &Repository{
		CacheDir: cache,
		RepoDir:  filepath.Join(cache, "asimov-data"),
		Remote:   remote,
		Git:      execRunner{},
		now:      time.Now,
	}
}

// EnsureAvailable returns the path of a usable checkout, cloning on first
// use and pulling when the cache is stale or update is forced. A stale
// cache that fails to update is still usable
func (r *Repository) EnsureAvailable(ctx context.Context, update bool) (string, error) {
	log := logger.C(ctx)

	if override := os.Getenv(envOverride); override != "" {
		if _, err := os.Stat(override); err != nil {
			log.Warn().Str("path", override).Msg("blueprint override path does not exist")
		} else {
			return override, nil
		}
	}

	if _, err := os.Stat(r.RepoDir); os.IsNotExist(err) {
		if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
			return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "cache dir %s", r.CacheDir)
		}
		log.Info().Str("remote", r.Remote).Msg("cloning blueprint repository")
		if err := r.Git.Run(ctx, "clone", r.Remote, r.RepoDir); err != nil {
			return "", err
		}
		r.writeMetadata()
		return r.RepoDir, nil
	}

	if update || r.stale() {
		log.Info().Msg("updating blueprint repository")
		if err := r.Git.Run(ctx, "-C", r.RepoDir, "pull"); err != nil {
			log.Warn().Err(err).Msg("blueprint update failed, using cached checkout")
		} else {
			r.writeMetadata()
		}
	}
	return r.RepoDir, nil
}

func (r *Repository) metadataPath() string {
	return filepath.Join(r.CacheDir, "metadata.yaml")
}

func (r *Repository) stale() bool {
	raw, err := os.ReadFile(r.metadataPath())
	if err != nil {
		return true
	}
	var m metadata
	if err := yaml.Unmarshal(raw, &m); err != nil || m.LastUpdate.IsZero() {
		return false
	}
	return r.now().Sub(m.LastUpdate) > updateInterval
}

func (r *Repository) writeMetadata() {
	m := metadata{LastUpdate: r.now(), RemoteURL: r.Remote}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return
	}
	_ = os.MkdirAll(r.CacheDir, 0o755)
	_ = os.WriteFile(r.metadataPath(), raw, 0o644)
}
