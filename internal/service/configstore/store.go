package configstore

import (
	"context"
	"errors"
	"fmt"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	"TradeCouncil/pkg/cache"
)

const (
	KeyWeights    = "weights"
	KeyThresholds = "thresholds"
	promptPrefix  = "prompt"
)

// PromptKey returns the store key holding a peer's prompt.
func PromptKey(peer string) string {
	return cache.GenerateKey(promptPrefix, peer)
}

// Store persists shared decision settings in a cache.Service. Entries never
// expire; peers read the same keys after a reload signal.
type Store struct {
	kv cache.Service
}

// New creates a config store over kv.
func New(kv cache.Service) *Store {
	return &Store{kv: kv}
}

var _ drepo.ConfigStore = (*Store)(nil)

func (s *Store) GetWeights(ctx context.Context) (models.WeightConfig, bool, error) {
	var w models.WeightConfig
	found, err := s.get(ctx, KeyWeights, &w)
	if err != nil || !found {
		return nil, found, err
	}
	return w, true, nil
}

func (s *Store) SetWeights(ctx context.Context, w models.WeightConfig) error {
	if err := s.kv.Set(ctx, KeyWeights, w, 0); err != nil {
		return fmt.Errorf("store weights: %w", err)
	}
	return nil
}

func (s *Store) GetThresholds(ctx context.Context) (models.ThresholdConfig, bool, error) {
	var t models.ThresholdConfig
	found, err := s.get(ctx, KeyThresholds, &t)
	return t, found, err
}

func (s *Store) SetThresholds(ctx context.Context, t models.ThresholdConfig) error {
	if err := s.kv.Set(ctx, KeyThresholds, t, 0); err != nil {
		return fmt.Errorf("store thresholds: %w", err)
	}
	return nil
}

func (s *Store) GetPrompt(ctx context.Context, peer string) (string, bool, error) {
	var text string
	found, err := s.get(ctx, PromptKey(peer), &text)
	return text, found, err
}

func (s *Store) SetPrompt(ctx context.Context, peer, text string) error {
	if err := s.kv.Set(ctx, PromptKey(peer), text, 0); err != nil {
		return fmt.Errorf("store prompt %s: %w", peer, err)
	}
	return nil
}

// ListPrompts returns the stored prompt of each named peer; peers without
// one are omitted.
func (s *Store) ListPrompts(ctx context.Context, peers []string) (map[string]string, error) {
	if len(peers) == 0 {
		return map[string]string{}, nil
	}
	keys := make([]string, len(peers))
	for i, p := range peers {
		keys[i] = PromptKey(p)
	}
	raw, err := s.kv.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	out := make(map[string]string, len(raw))
	for i, p := range peers {
		if v, ok := raw[keys[i]]; ok {
			out[p] = v
		}
	}
	return out, nil
}

// SeedDefaults writes each key only if it is absent and returns how many
// were written. Existing operator edits are never overwritten.
func (s *Store) SeedDefaults(ctx context.Context, defaults map[string]interface{}) (int, error) {
	n := 0
	for key, value := range defaults {
		ok, err := s.kv.SetNX(ctx, key, value, 0)
		if err != nil {
			return n, fmt.Errorf("seed %s: %w", key, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Defaults builds the seed map for SeedDefaults.
func Defaults(w models.WeightConfig, t models.ThresholdConfig, prompts map[string]string) map[string]interface{} {
	out := map[string]interface{}{
		KeyWeights:    w,
		KeyThresholds: t,
	}
	for peer, text := range prompts {
		if text != "" {
			out[PromptKey(peer)] = text
		}
	}
	return out
}

func (s *Store) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	err := s.kv.Get(ctx, key, dest)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return true, nil
}
