package main

import (
	"context"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
)

var (
	batchFile        string
	batchConcurrency int
)

// batchRequest is one entry of a batch file. Entries with a query run a
// text search; the rest run a category search.
type batchRequest struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Query    string   `yaml:"query"`
	Location string   `yaml:"location"`
	Lat      *float64 `yaml:"lat"`
	Lng      *float64 `yaml:"lng"`
}

type batchDoc struct {
	Requests []batchRequest `yaml:"requests"`
}

// batchResult is the outcome of one batch entry.
type batchResult struct {
	ID               string               `json:"id"`
	Mode             string               `json:"mode"`
	Status           int                  `json:"status"`
	Error            string               `json:"error,omitempty"`
	LocationSource   string               `json:"location_source,omitempty"`
	EventLocation    *model.LocationJSON  `json:"event_location,omitempty"`
	ServiceProviders []model.ProviderJSON `json:"service_providers"`
}

var discoverBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run discovery requests from a YAML file concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := loadBatchFile(batchFile)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		results, err := runBatch(cmd.Context(), newService(cfg), reqs, concurrency)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	discoverBatchCmd.Flags().StringVar(&batchFile, "file", "", "YAML file of discovery requests")
	discoverBatchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent requests (default from config)")
	_ = discoverBatchCmd.MarkFlagRequired("file")
}

// loadBatchFile reads and parses a batch file.
func loadBatchFile(path string) ([]batchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read %s", path)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) ([]batchRequest, error) {
	var doc batchDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "batch: parse yaml")
	}
	if len(doc.Requests) == 0 {
		return nil, eris.New("batch: no requests in file")
	}
	for i := range doc.Requests {
		if doc.Requests[i].ID == "" {
			doc.Requests[i].ID = strconv.Itoa(i + 1)
		}
	}
	return doc.Requests, nil
}

// runBatch runs every request with bounded concurrency. A failed request is
// reported in its result and does not stop the others; results keep the
// order of reqs.
func runBatch(ctx context.Context, svc discoverer, reqs []batchRequest, concurrency int) ([]batchResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]batchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			results[i] = runBatchOne(gctx, svc, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: run")
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	zap.L().Info("batch complete",
		zap.Int("requests", len(reqs)),
		zap.Int("failed", failed),
	)
	return results, nil
}

func runBatchOne(ctx context.Context, svc discoverer, req batchRequest) batchResult {
	loc := discovery.Location{Description: req.Location}
	if req.Lat != nil && req.Lng != nil {
		loc.Coordinates = &model.Coordinates{Latitude: *req.Lat, Longitude: *req.Lng}
	}

	var (
		res  *model.RankedResult
		err  error
		mode string
	)
	if req.Query != "" {
		mode = "text"
		res, err = svc.DiscoverByText(ctx, discovery.TextRequest{SearchQuery: req.Query, Location: loc})
	} else {
		mode = "category"
		res, err = svc.DiscoverByCategory(ctx, discovery.CategoryRequest{
			EventName:     req.Name,
			EventCategory: req.Category,
			Location:      loc,
		})
	}

	out := batchResult{ID: req.ID, Mode: mode, Status: discovery.HTTPStatus(err), ServiceProviders: []model.ProviderJSON{}}
	if err != nil {
		zap.L().Warn("batch request failed", zap.String("id", req.ID), zap.Error(err))
		out.Error = discovery.Message(err)
		return out
	}

	lj := res.Location.ToJSON()
	out.EventLocation = &lj
	out.LocationSource = string(res.Location.Source)
	out.ServiceProviders = res.ProvidersJSON()
	return out
}
