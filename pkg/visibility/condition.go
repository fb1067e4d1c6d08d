package visibility

import (
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// ConditionKind classifies a parsed condition string.
type ConditionKind int

const (
	ConditionChecked ConditionKind = iota + 1
	ConditionUnchecked
	ConditionValues
)

// Condition is a parsed trigger condition.
type Condition struct {
	Kind     ConditionKind
	Literals []string
	Patterns []*regexp.Regexp
}

var (
	valueTokenRE = regexp.MustCompile(`value((?:\[[^\[\]]*\])+)`)
	bracketRE    = regexp.MustCompile(`\[([^\[\]]*)\]`)

	conditions = newConditionCache(maxCachedConditions)
)

// maxCachedConditions caps the parsed conditions kept in memory. The cache
// starts over once it is full.
const maxCachedConditions = 512

type cachedCondition struct {
	cond Condition
	ok   bool
}

type conditionCache struct {
	mu      sync.RWMutex
	limit   int
	entries map[string]cachedCondition
}

func newConditionCache(limit int) *conditionCache {
	return &conditionCache{limit: limit, entries: make(map[string]cachedCondition)}
}

func (c *conditionCache) load(raw string) (cachedCondition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[raw]
	return entry, ok
}

func (c *conditionCache) store(raw string, entry cachedCondition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[raw]; !ok && len(c.entries) >= c.limit {
		clear(c.entries)
	}
	c.entries[raw] = entry
}

func (c *conditionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ParseCondition parses a raw condition. ok is false when the string is not
// checked, unchecked, or at least one value[...] token.
func ParseCondition(raw string) (Condition, bool) {
	if entry, hit := conditions.load(raw); hit {
		return entry.cond, entry.ok
	}
	cond, ok := parseCondition(raw)
	conditions.store(raw, cachedCondition{cond: cond, ok: ok})
	return cond, ok
}

func parseCondition(raw string) (Condition, bool) {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case model.ConditionChecked:
		return Condition{Kind: ConditionChecked}, true
	case model.ConditionUnchecked:
		return Condition{Kind: ConditionUnchecked}, true
	}

	groups := valueTokenRE.FindAllStringSubmatch(trimmed, -1)
	if len(groups) == 0 {
		return Condition{}, false
	}

	cond := Condition{Kind: ConditionValues}
	for _, group := range groups {
		for _, bracket := range bracketRE.FindAllStringSubmatch(group[1], -1) {
			token := bracket[1]
			if strings.Contains(token, "*") {
				cond.Patterns = append(cond.Patterns, wildcardPattern(token))
				continue
			}
			cond.Literals = append(cond.Literals, token)
		}
	}
	return cond, true
}

// wildcardPattern escapes every regex metacharacter except '*', which becomes
// ".*", and anchors the result.
func wildcardPattern(token string) *regexp.Regexp {
	parts := strings.Split(token, "*")
	for idx, part := range parts {
		parts[idx] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}

// Match reports whether value satisfies the condition.
func (c Condition) Match(value any) bool {
	switch c.Kind {
	case ConditionChecked:
		return model.Truthy(value)
	case ConditionUnchecked:
		return !model.Truthy(value)
	case ConditionValues:
		if items, ok := model.ToSlice(value); ok {
			for _, item := range items {
				if c.matchString(model.Stringify(item)) {
					return true
				}
			}
			return false
		}
		return c.matchString(model.Stringify(value))
	default:
		return false
	}
}

func (c Condition) matchString(s string) bool {
	for _, literal := range c.Literals {
		if s == literal {
			return true
		}
	}
	for _, pattern := range c.Patterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}
