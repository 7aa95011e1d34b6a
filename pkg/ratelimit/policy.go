// Package ratelimit applies fixed-window request-volume policies per
// (caller, route) pair on top of the shared windowed counter.
//
// Windows are epoch-aligned: every caller sharing a boundary resets at the
// same instant. That is a hard reset, acceptable for abuse deterrence but not
// for strict fairness.
package ratelimit

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy bounds request volume for one logical route.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Policies maps logical route names to their policies. Routes without a
// policy are not rate limited.
type Policies map[string]Policy

type policyDoc struct {
	Routes map[string]struct {
		Limit    int   `yaml:"limit"`
		WindowMS int64 `yaml:"window_ms"`
	} `yaml:"routes"`
}

// LoadPolicies parses a YAML policy table:
//
//	routes:
//	  logs.create:
//	    limit: 5
//	    window_ms: 60000
func LoadPolicies(data []byte) (Policies, error) {
	var doc policyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rate limit policies: %w", err)
	}

	policies := make(Policies, len(doc.Routes))
	for route, entry := range doc.Routes {
		policy := Policy{Limit: entry.Limit, Window: time.Duration(entry.WindowMS) * time.Millisecond}
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: %w", route, err)
		}
		policies[route] = policy
	}
	return policies, nil
}

func (p Policy) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	if p.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", p.Window)
	}
	return nil
}
