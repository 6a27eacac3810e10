// Package categorize assigns (category, subcategory) pairs to
// transaction descriptions via a prioritized rule engine.
package categorize

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Categorizer holds the built-in rule table plus any custom rules
// registered at runtime. Custom rules participate in the same ranking
// as the built-ins. Safe for concurrent use; rule registration takes
// the write lock.
type Categorizer struct {
	mu      sync.RWMutex
	rules   []Rule
	customs []Rule
}

// New returns a categorizer loaded with the default rule table.
func New() *Categorizer {
	return &Categorizer{rules: defaultRules()}
}

// AddCustomRule registers a runtime rule. At least one pattern or
// keyword is required; invalid regex patterns are rejected.
func (c *Categorizer) AddCustomRule(category, subcategory string, patterns, keywords []string, priority int) error {
	if len(patterns) == 0 && len(keywords) == 0 {
		return fmt.Errorf("rule %s/%s has no patterns or keywords", category, subcategory)
	}
	rule, err := NewRule(category, subcategory, patterns, keywords, priority)
	if err != nil {
		return fmt.Errorf("invalid pattern in rule %s/%s: %w", category, subcategory, err)
	}
	c.mu.Lock()
	c.customs = append(c.customs, rule)
	c.mu.Unlock()
	return nil
}

// sortedRules returns a snapshot of all rules ordered by priority
// descending. The sort is stable: among equal priorities, built-ins
// keep their table order and precede customs. The tie-break below
// depends on this ordering, so it must stay stable.
func (c *Categorizer) sortedRules() []Rule {
	c.mu.RLock()
	all := make([]Rule, 0, len(c.rules)+len(c.customs))
	all = append(all, c.rules...)
	all = append(all, c.customs...)
	c.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].Priority > all[j].Priority })
	return all
}

// Categorize resolves a description (optionally combined with the
// merchant token) to a category pair. Both results are "" when no
// rule matches.
//
// Resolution walks rules by priority descending. A pattern match at a
// priority equal to the current best overwrites it, so the last
// equal-priority pattern match wins. Keyword matches are only
// consulted while no winner exists yet. Downstream category data
// depends on this exact order; do not "simplify" it to first-match.
func (c *Categorizer) Categorize(description, merchant string) (string, string) {
	text := matchText(description, merchant)

	var best *Rule
	bestPriority := 0

	rules := c.sortedRules()
	for i := range rules {
		rule := &rules[i]

		for _, re := range rule.compiled {
			if re.MatchString(text) {
				if rule.Priority >= bestPriority {
					best = rule
					bestPriority = rule.Priority
					break
				}
			}
		}

		if best == nil || rule.Priority > bestPriority {
			for _, keyword := range rule.Keywords {
				if strings.Contains(text, strings.ToUpper(keyword)) {
					if rule.Priority >= bestPriority {
						best = rule
						bestPriority = rule.Priority
					}
					break
				}
			}
		}
	}

	if best == nil {
		return "", ""
	}
	return best.Category, best.Subcategory
}

// Explain re-runs resolution and reports which pattern or keyword in
// the winning rule caused the match.
func (c *Categorizer) Explain(description, merchant string) string {
	category, subcategory := c.Categorize(description, merchant)
	if category == "" {
		return fmt.Sprintf("No category match found for %q", description)
	}

	text := matchText(description, merchant)
	for _, rule := range c.sortedRules() {
		if rule.Category != category || rule.Subcategory != subcategory {
			continue
		}
		for i, re := range rule.compiled {
			if re.MatchString(text) {
				return fmt.Sprintf("Categorized as %s/%s - matched pattern: %s", category, subcategory, rule.Patterns[i])
			}
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, strings.ToUpper(keyword)) {
				return fmt.Sprintf("Categorized as %s/%s - matched keyword: %s", category, subcategory, keyword)
			}
		}
	}
	return fmt.Sprintf("Categorized as %s/%s", category, subcategory)
}

// Categories lists every distinct (category, subcategory) pair across
// built-in and custom rules, sorted.
func (c *Categorizer) Categories() [][2]string {
	c.mu.RLock()
	seen := make(map[[2]string]struct{})
	for _, rule := range c.rules {
		seen[[2]string{rule.Category, rule.Subcategory}] = struct{}{}
	}
	for _, rule := range c.customs {
		seen[[2]string{rule.Category, rule.Subcategory}] = struct{}{}
	}
	c.mu.RUnlock()

	pairs := make([][2]string, 0, len(seen))
	for pair := range seen {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

func matchText(description, merchant string) string {
	text := strings.ToUpper(description)
	if merchant != "" {
		text += " " + strings.ToUpper(merchant)
	}
	return text
}
