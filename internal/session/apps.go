package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
)

// appRecord is one entry of an app catalog dump keyed by app id.
type appRecord struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	OSSystem        []string `json:"os_system"`
	Category        []string `json:"category"`
	GeometricDomain []string `json:"geometric_domain"`
	Price           float64  `json:"Price"`
	Currency        string   `json:"currency"`
	Lang            string   `json:"lang"`
	WordCount       int      `json:"word_count"`
}

// ImportStats summarizes an ImportApps run.
type ImportStats struct {
	Imported int
	Skipped  int
	Failed   int
}

// ImportApps loads an app catalog dump ({"<id>": {...}, ...}) into store.
// Apps already present are skipped; per-app failures are counted and
// logged, not returned.
func ImportApps(ctx context.Context, store Store, r io.Reader) (ImportStats, error) {
	var records map[string]appRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return ImportStats{}, fmt.Errorf("decode app catalog: %w", err)
	}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var stats ImportStats
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := store.GetApp(ctx, id); err == nil {
			stats.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			stats.Failed++
			log.Printf("import apps: lookup %s: %v", id, err)
			continue
		}
		rec := records[id]
		app := AppMetadata{
			ID:              id,
			Title:           rec.Title,
			Description:     rec.Description,
			OSSystem:        rec.OSSystem,
			Category:        rec.Category,
			GeometricDomain: rec.GeometricDomain,
			Price:           rec.Price,
			Currency:        rec.Currency,
			Lang:            rec.Lang,
			WordCount:       rec.WordCount,
		}
		if app.GeometricDomain == nil {
			app.GeometricDomain = []string{}
		}
		if err := store.PutApp(ctx, app); err != nil {
			stats.Failed++
			log.Printf("import apps: put %s: %v", id, err)
			continue
		}
		stats.Imported++
	}
	return stats, nil
}
