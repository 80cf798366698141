package passphrase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// DefaultVocabulary is the stock passphrase list, 25 entries, matching the
// per-venue nightly capacity of the original deployment.
var DefaultVocabulary = []string{
	"Pineapples", "Kinkster", "Certified Freak", "Hot Wife", "Stag Night",
	"Velvet Vixen", "Playroom Pro", "Voyeur Vision", "After Dark",
	"Bare Temptation", "Swing Set", "Sultry Eyes", "Naughty List",
	"Dom Curious", "Unicorn Dust", "Cherry Popper", "Dirty Martini",
	"Lust Lounge", "Midnight Tease", "Fantasy Fuel", "Room 69", "Wet Bar",
	"No Limits", "Satin Sheets", "Wild Card",
}

// Store persists one pool per night. EnsurePool must behave as a
// compare-and-set: if a pool already exists for the night, the stored pool
// is returned and the candidate is discarded, so concurrent first calls
// agree on a single permutation.
type Store interface {
	EnsurePool(ctx context.Context, night domain.NightKey, candidate []string) ([]string, error)
}

// Service hands out the per-night random permutation of the vocabulary.
type Service struct {
	store Store
	vocab []string
}

// New validates the vocabulary against the per-venue capacity. A vocabulary
// shorter than the capacity could run out of passphrases mid-night, so it
// is rejected here rather than discovered at confirmation time.
func New(store Store, vocabulary []string, capacity int) (*Service, error) {
	if len(vocabulary) < capacity {
		return nil, fmt.Errorf("vocabulary has %d phrases, need at least %d (capacity)", len(vocabulary), capacity)
	}
	seen := make(map[string]struct{}, len(vocabulary))
	for _, p := range vocabulary {
		if p == "" {
			return nil, errors.New("vocabulary contains an empty phrase")
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("vocabulary contains duplicate phrase %q", p)
		}
		seen[p] = struct{}{}
	}
	return &Service{store: store, vocab: vocabulary}, nil
}

// EnsurePool returns the night's permutation, creating it on first use.
// Repeated calls for the same night return the same sequence.
func (s *Service) EnsurePool(ctx context.Context, night domain.NightKey) ([]string, error) {
	candidate := make([]string, len(s.vocab))
	copy(candidate, s.vocab)
	rand.Shuffle(len(candidate), func(i, j int) {
		candidate[i], candidate[j] = candidate[j], candidate[i]
	})

	pool, err := s.store.EnsurePool(ctx, night, candidate)
	if err != nil {
		return nil, fmt.Errorf("ensure pool for %s: %w", night, err)
	}
	return pool, nil
}

// NextFree picks the first phrase of the pool not present in taken. Pool
// length >= capacity and taken holds at most capacity-1 live phrases when
// a slot is still open, so exhaustion indicates an inconsistent ledger.
func NextFree(pool []string, taken map[string]struct{}) (string, error) {
	for _, p := range pool {
		if _, used := taken[p]; !used {
			return p, nil
		}
	}
	return "", domain.ErrPoolExhausted
}
