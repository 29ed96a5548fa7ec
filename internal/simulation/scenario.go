package simulation

import (
	"fmt"
	"strings"
)

// Scenario is an immutable roleplay descriptor.
type Scenario struct {
	ID            string   `yaml:"id" json:"id"`
	Title         string   `yaml:"title" json:"title"`
	Description   string   `yaml:"description" json:"description"`
	Tips          []string `yaml:"tips" json:"tips"`
	Persona       string   `yaml:"persona" json:"-"`
	Opening       string   `yaml:"opening" json:"opening"`
	Voice         string   `yaml:"voice" json:"voice"`
	AgeRestricted bool     `yaml:"age_restricted" json:"age_restricted"`

	// EndingKeywords maps a language tag to phrases that end the
	// conversation when they appear in the latest turn.
	EndingKeywords map[string][]string `yaml:"ending_keywords" json:"-"`

	// Bonuses are scored in order when the conversation ends.
	Bonuses []BonusRule `yaml:"bonuses" json:"-"`

	// Replacements rewrite agent replies in restricted scenarios.
	Replacements map[string]string `yaml:"replacements" json:"-"`
}

// BonusRule adds Points once when matched. A rule with Keywords matches
// when any keyword appears in the combined user text. A rule with
// MinUserTurns matches when the user spoke at least that many times.
// A rule with both needs both.
type BonusRule struct {
	Key          string   `yaml:"key"`
	Points       int      `yaml:"points"`
	Feedback     string   `yaml:"feedback"`
	Keywords     []string `yaml:"keywords"`
	MinUserTurns int      `yaml:"min_user_turns"`
}

func (b BonusRule) matches(h History) bool {
	if b.MinUserTurns > 0 && h.Count(RoleUser) < b.MinUserTurns {
		return false
	}
	if len(b.Keywords) == 0 {
		return b.MinUserTurns > 0
	}
	return containsAny(h.UserText(), b.Keywords)
}

func (s Scenario) validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario without id")
	}
	if strings.TrimSpace(s.Persona) == "" {
		return fmt.Errorf("scenario %q: empty persona", s.ID)
	}
	if strings.TrimSpace(s.Opening) == "" {
		return fmt.Errorf("scenario %q: empty opening line", s.ID)
	}
	for i, b := range s.Bonuses {
		if b.Key == "" {
			return fmt.Errorf("scenario %q: bonus %d has no key", s.ID, i)
		}
		if len(b.Keywords) == 0 && b.MinUserTurns <= 0 {
			return fmt.Errorf("scenario %q: bonus %q has no condition", s.ID, b.Key)
		}
	}
	return nil
}

// Catalog is the immutable set of scenarios keyed by ID.
type Catalog struct {
	order []Scenario
	byID  map[string]Scenario
}

// NewCatalog validates scenarios and indexes them by ID.
func NewCatalog(scenarios []Scenario) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Scenario, len(scenarios))}
	for _, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.ID)
		}
		c.byID[s.ID] = s
		c.order = append(c.order, s)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Scenario, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// All returns scenarios in catalog order.
func (c *Catalog) All() []Scenario {
	return append([]Scenario(nil), c.order...)
}

func containsAny(text string, phrases []string) bool {
	text = strings.ToLower(text)
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}
