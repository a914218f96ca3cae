// Package badges evaluates achievement rules against user statistics.
//
// A badge is static registry data: an identity, presentation fields and a predicate over stats.UserStats.
// Earned badges are never stored, they are a projection of current stats evaluated on demand.
package badges

import (
	"fmt"

	"github.com/platebook/platebook-backend/internal/stats"
)

// Category groups badges for display.
type Category string

// Known categories.
const (
	CategoryMilestone  Category = "milestone"
	CategoryEngagement Category = "engagement"
	CategoryGeographic Category = "geographic"
	CategoryRegional   Category = "regional"
	CategoryDiscovery  Category = "discovery"
)

// Predicate decides whether stats earn a badge. Predicates must be pure and must not panic on empty stats.
type Predicate func(s stats.UserStats) bool

// Badge definition.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Category    Category  `json:"category"`
	Earned      Predicate `json:"-"`
}

// Engine evaluates a fixed registry of badges.
type Engine struct {
	badges []Badge
	byID   map[string]int
}

// NewEngine validates the registry. IDs must be unique and non-empty and every badge needs a predicate.
func NewEngine(registry []Badge) (*Engine, error) {
	e := &Engine{
		badges: make([]Badge, 0, len(registry)),
		byID:   make(map[string]int, len(registry)),
	}

	for _, b := range registry {
		if b.ID == "" {
			return nil, fmt.Errorf("badge %q has no id", b.Name)
		}
		if b.Earned == nil {
			return nil, fmt.Errorf("badge %v has no predicate", b.ID)
		}
		if _, dup := e.byID[b.ID]; dup {
			return nil, fmt.Errorf("duplicate badge id %v", b.ID)
		}
		e.byID[b.ID] = len(e.badges)
		e.badges = append(e.badges, b)
	}

	return e, nil
}

// Evaluate returns the IDs of every badge earned by the stats, in registry order.
func (e *Engine) Evaluate(s stats.UserStats) []string {
	earned := []string{}
	for _, b := range e.badges {
		if b.Earned(s) {
			earned = append(earned, b.ID)
		}
	}
	return earned
}

// LookupByID finds a badge by its exact ID.
func (e *Engine) LookupByID(id string) (Badge, bool) {
	i, ok := e.byID[id]
	if !ok {
		return Badge{}, false
	}
	return e.badges[i], true
}

// ListByCategory returns the badges of the category, empty for unknown categories.
func (e *Engine) ListByCategory(category Category) []Badge {
	out := []Badge{}
	for _, b := range e.badges {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}

// All returns the whole registry.
func (e *Engine) All() []Badge {
	return append([]Badge(nil), e.badges...)
}
