// Package preview renders widget schemas for the live preview: a cached
// render service and a per-session event hub.
package preview

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"

	"widgetgen/internal/a2ui"
	"widgetgen/internal/telemetry"
	"widgetgen/internal/ui"
	"widgetgen/internal/util/jsonutil"
)

var ErrInvalidData = errors.New("invalid data model")

type Config struct {
	CacheTTL     time.Duration
	CacheEntries int
	MaxDepth     int
	MaxNodes     int
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:     5 * time.Minute,
		CacheEntries: 256,
		MaxDepth:     a2ui.DefaultMaxDepth,
		MaxNodes:     a2ui.DefaultMaxNodes,
	}
}

// Result is a rendered tree. Root is shared with the cache and must be
// treated as read-only.
type Result struct {
	Root   ui.Node
	Issues []a2ui.Issue
	Cached bool
}

type Service struct {
	renderer *a2ui.Renderer
	cache    *expirable.LRU[string, a2ui.Result]
}

// NewService renders with cat (DefaultCatalog when nil). A non-positive
// CacheEntries disables caching.
func NewService(cat *a2ui.Catalog, cfg Config) *Service {
	if cat == nil {
		cat = a2ui.DefaultCatalog()
	}
	var opts []a2ui.Option
	if cfg.MaxDepth > 0 {
		opts = append(opts, a2ui.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.MaxNodes > 0 {
		opts = append(opts, a2ui.WithMaxNodes(cfg.MaxNodes))
	}
	s := &Service{renderer: a2ui.NewRenderer(cat, opts...)}
	if cfg.CacheEntries > 0 {
		s.cache = expirable.NewLRU[string, a2ui.Result](cfg.CacheEntries, nil, cfg.CacheTTL)
	}
	return s
}

// Renderer exposes the underlying renderer.
func (s *Service) Renderer() *a2ui.Renderer { return s.renderer }

// Render validates schemaJSON and renders it against dataJSON. Empty data
// renders with no data model. Validation failures are returned as
// *a2ui.ValidationError.
func (s *Service) Render(ctx context.Context, schemaJSON, dataJSON []byte) (Result, error) {
	_, span := telemetry.Start(ctx, "preview.render")
	var err error
	defer func() { telemetry.End(span, err) }()

	key := cacheKey(schemaJSON, dataJSON)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("preview.cached", true))
			return Result{Root: res.Root, Issues: res.Issues, Cached: true}, nil
		}
	}

	var schema *a2ui.Schema
	schema, err = a2ui.ValidateJSON(schemaJSON)
	if err != nil {
		return Result{}, err
	}
	var model any
	model, err = decodeData(dataJSON)
	if err != nil {
		return Result{}, err
	}
	res := s.renderer.RenderWithIssues(schema, model)
	span.SetAttributes(
		attribute.Int("preview.components", len(schema.Components)),
		attribute.Int("preview.issues", len(res.Issues)),
	)
	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return Result{Root: res.Root, Issues: res.Issues}, nil
}

func decodeData(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v any
	if err := jsonutil.UnmarshalFlex(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return v, nil
}

// cacheKey hashes schema and data with length prefixes so distinct pairs
// never collide by concatenation.
func cacheKey(schema, data []byte) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(schema)))
	h.Write(n[:])
	h.Write(schema)
	binary.BigEndian.PutUint64(n[:], uint64(len(data)))
	h.Write(n[:])
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
