package flyability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"flyticker/internal/models"
	"flyticker/shared/config"
	"flyticker/shared/storage"
)

// ErrNoDataAvailable means every source in the read chain came up empty,
// including a live refresh.
var ErrNoDataAvailable = errors.New("no data available from any source")

// Availability is the dashboard read path. Reads walk cache, stored files
// and finally a live refresh, so a cold deployment can still answer its
// first request.
type Availability struct {
	config   *config.Config
	store    *storage.Store
	cache    *storage.WeatherCache
	forecast *ForecastClient
	agent    *FlyabilityAgent
}

func NewAvailability(cfg *config.Config, store *storage.Store, agent *FlyabilityAgent) *Availability {
	return &Availability{
		config:   cfg,
		store:    store,
		cache:    storage.NewWeatherCache(cfg.Storage.CacheTTL()),
		forecast: NewForecastClient(&cfg.Forecast),
		agent:    agent,
	}
}

// SiteWeather returns the configured site's weather bundle: fresh cache
// first, then stored files, then a live fetch that is persisted for the
// next reader.
func (s *Availability) SiteWeather(ctx context.Context) (models.SiteWeather, error) {
	if weather, ok := s.cache.Get(); ok {
		return weather, nil
	}

	if doc, err := s.store.LoadWeather(); err == nil {
		if weather, ok := findSite(doc, s.config.Site.Name); ok {
			s.cache.Put(weather)
			return weather, nil
		}
		log.Printf("Stored weather file has no entry for %s", s.config.Site.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Warning: failed to load stored weather: %v", err)
	}

	log.Printf("No stored weather for %s, fetching live...", s.config.Site.Name)
	weather, err := s.forecast.FetchSite(ctx, s.config.Site)
	if err != nil {
		return models.SiteWeather{}, fmt.Errorf("%w: %v", ErrNoDataAvailable, err)
	}

	if err := s.store.SaveWeather(models.WeatherFile{s.config.Site.Name: weather}); err != nil {
		log.Printf("Warning: failed to persist live-fetched weather: %v", err)
	}
	s.cache.Put(weather)
	return weather, nil
}

// Evaluations returns the stored verdict batch, running the full pipeline
// synchronously when nothing is stored yet. The post-run re-read happens
// exactly once.
func (s *Availability) Evaluations(ctx context.Context) (models.EvaluationBatch, error) {
	batch, err := s.store.LoadEvaluations()
	if err == nil {
		return batch, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.EvaluationBatch{}, err
	}

	log.Println("No stored evaluations, running evaluation pipeline...")
	if err := s.agent.EvaluateNow(ctx); err != nil {
		return models.EvaluationBatch{}, fmt.Errorf("%w: evaluation run failed: %v", ErrNoDataAvailable, err)
	}

	batch, err = s.store.LoadEvaluations()
	if err != nil {
		return models.EvaluationBatch{}, fmt.Errorf("%w: evaluations missing after run", ErrNoDataAvailable)
	}
	return batch, nil
}

// findSite resolves the weather entry for a site name, tolerating files
// written with a slightly different key (exact match first, then a
// case-insensitive substring match).
func findSite(doc models.WeatherFile, name string) (models.SiteWeather, bool) {
	if weather, ok := doc[name]; ok {
		return weather, true
	}

	lower := strings.ToLower(name)
	for key, weather := range doc {
		if strings.Contains(strings.ToLower(key), lower) || strings.Contains(lower, strings.ToLower(key)) {
			return weather, true
		}
	}
	return models.SiteWeather{}, false
}
