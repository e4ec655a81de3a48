package forecast

import (
	"context"
	"errors"
	"strings"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
)

// ErrNoMatch indicates a reported name could not be resolved to any
// catalogued item.
var ErrNoMatch = errors.New("no matching medical item")

// aliasRule maps a substring of a reported name to a canonical item name.
type aliasRule struct {
	contains  string
	canonical string
}

// aliasTable is the ordered fallback table consulted when no exact name
// match exists. Rules are checked top to bottom and the first hit wins, so
// more specific substrings must come before broader ones.
var aliasTable = []aliasRule{
	{contains: "insulin", canonical: "Insulin"},
	{contains: "paracetamol", canonical: "Paracetamol"},
	{contains: "acetaminophen", canonical: "Paracetamol"},
}

// ItemMatcher resolves free-text medication names, as reported by dispensing
// systems, to catalogued items.
type ItemMatcher struct {
	repo repository.InventoryRepository
}

// NewItemMatcher creates a new ItemMatcher.
func NewItemMatcher(repo repository.InventoryRepository) *ItemMatcher {
	return &ItemMatcher{repo: repo}
}

// Match resolves a reported name: exact (case-insensitive) catalogue match
// first, then the ordered alias table. Returns ErrNoMatch when neither
// applies.
func (m *ItemMatcher) Match(ctx context.Context, name string) (*entities.MedicalItem, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrNoMatch
	}

	item, err := m.repo.GetItemByName(ctx, trimmed)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, repository.ErrItemNotFound) {
		return nil, err
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range aliasTable {
		if !strings.Contains(lower, rule.contains) {
			continue
		}
		item, err := m.repo.GetItemByName(ctx, rule.canonical)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, repository.ErrItemNotFound) {
			return nil, err
		}
	}
	return nil, ErrNoMatch
}
