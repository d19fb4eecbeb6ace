// Package config loads the mirror configuration from the environment.
//
// The configuration is read once at startup and passed by value to the
// components that need it; nothing else reads the environment.
//
// # Basic Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/input-output-hk/crx-mirror/publish"
	"github.com/input-output-hk/crx-mirror/secrets"
)

// Environment variable names.
const (
	EnvExtensionID      = "EXTENSION_ID"
	EnvRepoOwner        = "REPO_OWNER"
	EnvRepoName         = "REPO_NAME"
	EnvRepoBranch       = "REPO_BRANCH"
	EnvToken            = "GITHUB_TOKEN"
	EnvStrategy         = "PUBLISH_STRATEGY"
	EnvRebaseOnConflict = "REBASE_ON_CONFLICT"
	EnvAPIBaseURL       = "GITHUB_API_URL"
	EnvRemoteURL        = "GIT_REMOTE_URL"
	EnvAuthorName       = "COMMIT_AUTHOR_NAME"
	EnvAuthorEmail      = "COMMIT_AUTHOR_EMAIL"
	EnvDebug            = "DEBUG"
	EnvUnstructuredLogs = "UNSTRUCTURED_LOGS"
	EnvUpdateURL        = "CRX_UPDATE_URL"
)

// Defaults for optional settings and fixed parameters of the loop.
const (
	DefaultBranch      = "master"
	DefaultStrategy    = publish.StrategyTreeAPI
	DefaultAuthorName  = "crx-mirror"
	DefaultAuthorEmail = "crx-mirror@users.noreply.github.com"

	// Interval is the pause between two iterations.
	Interval = time.Hour

	// WorkDir is the directory the extension is unpacked into.
	WorkDir = "extension_unpacked"

	// ArchivePath is where the downloaded package is stored.
	ArchivePath = "downloaded_extension.crx"
)

// Config holds every setting of the mirror.
type Config struct {
	ExtensionID string
	RepoOwner   string
	RepoName    string
	Branch      string
	Token       secrets.Secret

	Strategy         publish.Strategy
	RebaseOnConflict bool
	APIBaseURL       string
	RemoteURL        string
	UpdateURL        string
	Author           publish.Identity

	Debug            bool
	UnstructuredLogs bool

	Interval    time.Duration
	WorkDir     string
	ArchivePath string
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(newEnvViper())
}

// LoadFrom reads the configuration from v. Keys are the environment variable
// names; v is expected to resolve them through AutomaticEnv or explicit Set calls.
func LoadFrom(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		ExtensionID:      strings.TrimSpace(v.GetString(EnvExtensionID)),
		RepoOwner:        strings.TrimSpace(v.GetString(EnvRepoOwner)),
		RepoName:         strings.TrimSpace(v.GetString(EnvRepoName)),
		Branch:           strings.TrimSpace(v.GetString(EnvRepoBranch)),
		Token:            secrets.New(v.GetString(EnvToken)),
		Strategy:         publish.Strategy(strings.ToLower(strings.TrimSpace(v.GetString(EnvStrategy)))),
		RebaseOnConflict: v.GetBool(EnvRebaseOnConflict),
		APIBaseURL:       strings.TrimSpace(v.GetString(EnvAPIBaseURL)),
		RemoteURL:        strings.TrimSpace(v.GetString(EnvRemoteURL)),
		UpdateURL:        strings.TrimSpace(v.GetString(EnvUpdateURL)),
		Author: publish.Identity{
			Name:  v.GetString(EnvAuthorName),
			Email: v.GetString(EnvAuthorEmail),
		},
		Debug:            v.GetBool(EnvDebug),
		UnstructuredLogs: v.GetBool(EnvUnstructuredLogs),
		Interval:         Interval,
		WorkDir:          WorkDir,
		ArchivePath:      ArchivePath,
	}

	if cfg.RemoteURL == "" && cfg.RepoOwner != "" && cfg.RepoName != "" {
		cfg.RemoteURL = fmt.Sprintf("https://github.com/%s/%s.git", cfg.RepoOwner, cfg.RepoName)
	}

	return cfg, nil
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvRepoBranch, DefaultBranch)
	v.SetDefault(EnvStrategy, string(DefaultStrategy))
	v.SetDefault(EnvRebaseOnConflict, false)
	v.SetDefault(EnvAuthorName, DefaultAuthorName)
	v.SetDefault(EnvAuthorEmail, DefaultAuthorEmail)
	v.SetDefault(EnvDebug, false)
	v.SetDefault(EnvUnstructuredLogs, true)
}
