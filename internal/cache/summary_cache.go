package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"voicepanels/internal/model"

	"github.com/redis/go-redis/v9"
)

// ScopeAll is the summary scope covering every panel
const ScopeAll = ""

// SummaryCache holds computed panel summaries in Redis. Entries are keyed by
// scope and generation; Invalidate bumps the generation, so a summary built
// before an invalidation and written after it is never read back.
type SummaryCache interface {
	// Get returns the current generation and the summary stored under it,
	// or a nil summary on a miss. An empty panelID means all panels.
	Get(ctx context.Context, panelID string) (*model.PanelSummary, uint64, error)
	// Set stores summary under gen, the generation Get reported
	Set(ctx context.Context, panelID string, gen uint64, summary *model.PanelSummary) error
	// Invalidate moves the given panels and the overall scope to a new generation
	Invalidate(ctx context.Context, panelIDs ...string) error
}

type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a new summary cache
func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &summaryCache{
		client: client,
		ttl:    ttl,
	}
}

func scopeKey(panelID string) string {
	if panelID == ScopeAll {
		return "all"
	}
	return "panel:" + panelID
}

// GenerationKey returns the Redis key holding a scope's generation counter
func GenerationKey(panelID string) string {
	return "insights:summary:gen:" + scopeKey(panelID)
}

// SummaryKey returns the Redis key for a scope's summary at gen
func SummaryKey(panelID string, gen uint64) string {
	return "insights:summary:" + scopeKey(panelID) + ":v" + strconv.FormatUint(gen, 10)
}

func (c *summaryCache) generation(ctx context.Context, panelID string) (uint64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(panelID)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *summaryCache) Get(ctx context.Context, panelID string) (*model.PanelSummary, uint64, error) {
	gen, err := c.generation(ctx, panelID)
	if err != nil {
		return nil, 0, err
	}
	data, err := c.client.Get(ctx, SummaryKey(panelID, gen)).Bytes()
	if err == redis.Nil {
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, err
	}
	var summary model.PanelSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, gen, err
	}
	return &summary, gen, nil
}

func (c *summaryCache) Set(ctx context.Context, panelID string, gen uint64, summary *model.PanelSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SummaryKey(panelID, gen), data, c.ttl).Err()
}

func (c *summaryCache) Invalidate(ctx context.Context, panelIDs ...string) error {
	pipe := c.client.TxPipeline()
	for _, scope := range invalidationScopes(panelIDs) {
		pipe.Incr(ctx, GenerationKey(scope))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// invalidationScopes is the overall scope followed by each distinct panel
func invalidationScopes(panelIDs []string) []string {
	scopes := []string{ScopeAll}
	seen := map[string]bool{ScopeAll: true}
	for _, id := range panelIDs {
		if !seen[id] {
			seen[id] = true
			scopes = append(scopes, id)
		}
	}
	return scopes
}
