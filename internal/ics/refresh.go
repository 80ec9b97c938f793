package ics

import (
	"context"
	"time"

	"calview/internal/event"
	appLog "calview/internal/log"
)

// RefreshConfig bundles the parameters of a full feed refresh cycle.
type RefreshConfig struct {
	// DisplayLocation is the timezone imported events are converted into.
	DisplayLocation *time.Location
	// HorizonDays bounds recurrence expansion: occurrences are collected
	// from HorizonDays before now to HorizonDays after.
	HorizonDays int
}

// Refresh runs the full pipeline for all sources: conditional fetch, VEVENT
// parse, recurrence expansion, and conversion into normalized engine events.
// Failures of individual sources are logged and skipped; the returned slice
// holds whatever could be imported.
func Refresh(ctx context.Context, f *Fetcher, sources []Source, cfg RefreshConfig, norm event.Normalizer) []event.Event {
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 90
	}

	now := time.Now().In(cfg.DisplayLocation)
	expandCfg := ExpandConfig{
		DisplayLocation: cfg.DisplayLocation,
		RangeStart:      now.AddDate(0, 0, -cfg.HorizonDays),
		RangeEnd:        now.AddDate(0, 0, cfg.HorizonDays),
	}

	results, errs := f.FetchAll(ctx, sources)
	for _, err := range errs {
		appLog.Error("feed refresh: source skipped", err)
	}

	var imported []event.Event
	for _, res := range results {
		parsed, err := ParseFeed(res.Source, res.Body)
		if err != nil {
			appLog.Error("feed refresh: parse failed", err, "id", res.Source.ID)
			continue
		}
		expanded, err := ExpandOccurrences(parsed, expandCfg)
		if err != nil {
			appLog.Error("feed refresh: expand failed", err, "id", res.Source.ID)
			continue
		}
		for _, occ := range expanded.Occurrences {
			imported = append(imported, norm.Normalize(OccurrenceRaw(occ, res.Source.Color)))
		}
	}

	appLog.Info("feed refresh completed", "sources", len(sources), "imported", len(imported))
	return imported
}
