// Package featureflags evaluates rollout switches parsed from configuration.
//
// Flags arrive as a comma-separated list in FEATURE_FLAGS, e.g.
// "phone_login=on,listing_search=off,event_feed=40%". Boolean values switch
// a feature for every account; percentage values roll it out deterministically
// by account ID so an account keeps the same answer across restarts.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	ruleRollout
)

// rule is one parsed flag value. pct is only meaningful for ruleRollout.
type rule struct {
	kind ruleKind
	pct  int
}

// Manager holds parsed rollout rules. Malformed entries are dropped at parse
// time so evaluation never has to re-validate.
type Manager struct {
	rules map[string]rule
	raw   map[string]string
}

// NewManager parses a comma-separated flag list. Keys and values are
// lowercased and trimmed; entries with an unrecognized value are ignored.
func NewManager(config string) *Manager {
	m := &Manager{
		rules: make(map[string]rule),
		raw:   make(map[string]string),
	}

	for _, entry := range strings.Split(config, ",") {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		key = canonical(key)
		value = canonical(value)
		if key == "" {
			continue
		}
		r, ok := parseRule(value)
		if !ok {
			continue
		}
		m.rules[key] = r
		m.raw[key] = value
	}

	return m
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{kind: ruleOn}, true
	case "off", "false", "0":
		return rule{kind: ruleOff}, true
	}
	pctRaw, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct < 0 || pct > 100 {
		return rule{}, false
	}
	return rule{kind: ruleRollout, pct: pct}, true
}

// Enabled reports whether a flag is on for the given account. Unconfigured
// flags are off. Rollout flags never include anonymous callers (accountID 0).
func (m *Manager) Enabled(name string, accountID uint) bool {
	return m.EnabledOr(name, accountID, false)
}

// EnabledOr is Enabled with an explicit answer for unconfigured flags.
// Gates on features that ship enabled pass fallback=true so an empty
// FEATURE_FLAGS changes nothing.
func (m *Manager) EnabledOr(name string, accountID uint, fallback bool) bool {
	if m == nil {
		return fallback
	}
	r, ok := m.rules[canonical(name)]
	if !ok {
		return fallback
	}
	switch r.kind {
	case ruleOn:
		return true
	case ruleRollout:
		if accountID == 0 {
			return false
		}
		return bucket(name, accountID) < r.pct
	default:
		return false
	}
}

// Raw returns a copy of the parsed flag configuration for inspection.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.raw))
	for k, v := range m.raw {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every configured flag for one account.
func (m *Manager) Snapshot(accountID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, accountID)
	}
	return out
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket maps (flag, account) to a stable value in [0, 100).
func bucket(name string, accountID uint) int {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s#%d", canonical(name), accountID)
	return int(h.Sum64() % 100)
}
