package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// MissingKeyError reports a required configuration key that was not set.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required configuration key: %s", e.Key)
}

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ResolveEnvironment builds the EnvironmentSnapshot for a report. It fails with
// a *MissingKeyError naming the key when any required setting is absent.
func ResolveEnvironment(cfg EnvironmentConfig, lookup LookupFunc, startedAt, now time.Time) (models.EnvironmentSnapshot, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	switch {
	case cfg.Name == "":
		return models.EnvironmentSnapshot{}, &MissingKeyError{Key: "environment.name"}
	case len(cfg.CIVars) == 0:
		return models.EnvironmentSnapshot{}, &MissingKeyError{Key: "environment.ci_vars"}
	case cfg.DefaultBranch == "":
		return models.EnvironmentSnapshot{}, &MissingKeyError{Key: "environment.default_branch"}
	case cfg.DefaultRunID == "":
		return models.EnvironmentSnapshot{}, &MissingKeyError{Key: "environment.default_run_id"}
	}

	hostname, _ := os.Hostname()

	return models.EnvironmentSnapshot{
		Environment: cfg.Name,
		Branch:      firstSet(lookup, cfg.BranchVars, cfg.DefaultBranch),
		RunID:       firstSet(lookup, cfg.RunIDVars, cfg.DefaultRunID),
		CI:          detectCI(lookup, cfg.CIVars),
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Hostname:    hostname,
		NumCPU:      runtime.NumCPU(),
		StartedAt:   startedAt,
		GeneratedAt: now,
	}, nil
}

// firstSet returns the value of the first variable in vars that is set and
// non-empty, or fallback.
func firstSet(lookup LookupFunc, vars []string, fallback string) string {
	for _, key := range vars {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return fallback
}

func detectCI(lookup LookupFunc, vars []string) bool {
	for _, key := range vars {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "no":
			continue
		}
		return true
	}
	return false
}
