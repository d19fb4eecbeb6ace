package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/publish"
)

// Validate checks that every required setting is present and well formed.
// All problems are reported in a single CodeInvalidConfig error.
func (c Config) Validate() error {
	var problems []string

	for _, req := range []struct {
		name  string
		value string
	}{
		{EnvExtensionID, c.ExtensionID},
		{EnvRepoOwner, c.RepoOwner},
		{EnvRepoName, c.RepoName},
		{EnvRepoBranch, c.Branch},
	} {
		if req.value == "" {
			problems = append(problems, req.name+" is required")
		}
	}

	if c.Token.IsZero() {
		problems = append(problems, EnvToken+" is required")
	}

	if !c.Strategy.Valid() {
		problems = append(problems, fmt.Sprintf("%s must be %q or %q, got %q",
			EnvStrategy, publish.StrategyTreeAPI, publish.StrategyClonePush, c.Strategy))
	}

	if c.APIBaseURL != "" {
		if err := validateURL(c.APIBaseURL); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", EnvAPIBaseURL, err))
		}
	}

	if c.UpdateURL != "" {
		if err := validateURL(c.UpdateURL); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", EnvUpdateURL, err))
		}
	}

	if c.Strategy == publish.StrategyClonePush && c.RemoteURL != "" {
		if err := validateURL(c.RemoteURL); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", EnvRemoteURL, err))
		}
	}

	if c.Author.Name == "" || c.Author.Email == "" {
		problems = append(problems, "commit author name and email cannot be empty")
	}

	if len(problems) > 0 {
		return errors.New(
			errors.CodeInvalidConfig,
			fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
		).WithContext("problems", problems)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return fmt.Errorf("URL %q has no scheme", raw)
	}
	return nil
}
