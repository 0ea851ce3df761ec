package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"immunization-scheduler/internal/domain/protocol"
	"immunization-scheduler/internal/platform/logger"

	"github.com/go-redis/redis/v8"
)

const DefaultCatalogKey = "immunization:protocol:catalog"

// CatalogCache es cache-aside sobre un protocol.Repository.
// Si Redis falla se sirve directo del origen: el cache nunca bloquea el scheduling.
type CatalogCache struct {
	origin protocol.Repository
	client *redis.Client
	key    string
	ttl    time.Duration
	log    logger.Logger
}

type CatalogOptions struct {
	Key    string
	TTL    time.Duration
	Logger logger.Logger
}

func NewCatalogCache(origin protocol.Repository, client *redis.Client, opts CatalogOptions) *CatalogCache {
	key := opts.Key
	if key == "" {
		key = DefaultCatalogKey
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogCache{
		origin: origin,
		client: client,
		key:    key,
		ttl:    ttl,
		log:    log.With(map[string]any{"component": "catalog_cache"}),
	}
}

type cachedEntry struct {
	VaccineID   string `json:"vaccine_id"`
	VaccineName string `json:"vaccine_name"`
	DoseNumber  int    `json:"dose_number"`
	Unit        string `json:"unit"`
	Value       int    `json:"value"`
	Required    bool   `json:"required"`
	Notes       string `json:"notes,omitempty"`
}

func (c *CatalogCache) List(ctx context.Context) ([]protocol.Entry, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		entries, decodeErr := decodeCatalog(raw)
		if decodeErr == nil {
			return entries, nil
		}
		c.log.Warn("discarding corrupt catalog cache", map[string]any{"error": decodeErr})
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.log.Warn("catalog cache read failed", map[string]any{"error": err})
	}

	entries, err := c.origin.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, entries); err != nil {
		c.log.Warn("catalog cache write failed", map[string]any{"error": err})
	}
	return entries, nil
}

// Invalidate borra el catálogo cacheado (tras un seed o cambio de protocolo).
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *CatalogCache) store(ctx context.Context, entries []protocol.Entry) error {
	out := make([]cachedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, cachedEntry{
			VaccineID:   e.VaccineID,
			VaccineName: e.VaccineName,
			DoseNumber:  e.DoseNumber,
			Unit:        string(e.Unit),
			Value:       e.Value,
			Required:    e.Required,
			Notes:       e.Notes,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, b, c.ttl).Err()
}

func decodeCatalog(raw []byte) ([]protocol.Entry, error) {
	var items []cachedEntry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	out := make([]protocol.Entry, 0, len(items))
	for _, it := range items {
		e, err := protocol.NewEntry(protocol.EntryInput{
			VaccineID:   it.VaccineID,
			VaccineName: it.VaccineName,
			DoseNumber:  it.DoseNumber,
			Unit:        protocol.Unit(it.Unit),
			Value:       it.Value,
			Required:    it.Required,
			Notes:       it.Notes,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
