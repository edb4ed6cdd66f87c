package pipeline

import (
	"context"
	"fmt"

	"github.com/greenplanet/inventory-server/ai"
	"github.com/greenplanet/inventory-server/intake"
	"github.com/greenplanet/inventory-server/inventory"
	"github.com/greenplanet/inventory-server/model"
	"github.com/greenplanet/inventory-server/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned when an analysis is requested with nothing staged.
var ErrNoFiles = fmt.Errorf("pipeline: no images staged")

// Analyzer runs the photo-to-inventory pipeline: concurrent uploads,
// one extraction call, materialization, one batch insert.
type Analyzer struct {
	uploader  storage.Uploader
	extractor ai.Extractor
	inv       *inventory.Service
	logger    *zap.Logger
}

func NewAnalyzer(up storage.Uploader, ex ai.Extractor, inv *inventory.Service, logger *zap.Logger) *Analyzer {
	return &Analyzer{uploader: up, extractor: ex, inv: inv, logger: logger}
}

// Result is what one analysis run produced.
type Result struct {
	Items []model.Item
	URLs  []string
}

// Analyze uploads every staged file, extracts item descriptors, and
// persists the materialized items. Any failure aborts the whole run
// with nothing persisted; the caller keeps its staged files for
// resubmission.
func (a *Analyzer) Analyze(ctx context.Context, accountID int64, files []intake.File) (Result, error) {
	if len(files) == 0 {
		return Result{}, ErrNoFiles
	}

	urls, err := a.uploadAll(ctx, files)
	if err != nil {
		return Result{}, err
	}

	descriptors, err := a.extractor.ExtractItems(ctx, urls)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: extract: %w", err)
	}
	if len(descriptors) == 0 {
		a.logger.Info("analysis complete, no items identified",
			zap.Int64("account_id", accountID),
			zap.Int("images", len(urls)))
		return Result{URLs: urls}, nil
	}

	items := Materialize(accountID, descriptors, urls)
	if err := a.inv.BulkCreate(ctx, items); err != nil {
		return Result{}, fmt.Errorf("pipeline: persist: %w", err)
	}

	a.logger.Info("analysis complete",
		zap.Int64("account_id", accountID),
		zap.Int("images", len(urls)),
		zap.Int("items", len(items)))
	return Result{Items: items, URLs: urls}, nil
}

// uploadAll puts every file concurrently and fails fast on the first
// error. The returned URLs are positionally aligned with the input.
func (a *Analyzer) uploadAll(ctx context.Context, files []intake.File) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := a.uploader.Upload(gctx, f.Name, f.Data, f.MIME)
			if err != nil {
				return fmt.Errorf("pipeline: upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Materialize turns descriptors into persistable items. Item i of M
// items over N URLs is assigned urls[i*N/M]: contiguous groups of
// items map to images in order. The grouping is positional only; with
// uneven counts per photo, items can land on a neighboring image.
func Materialize(accountID int64, descs []ai.ItemDescriptor, urls []string) []model.Item {
	items := make([]model.Item, len(descs))
	for i, d := range descs {
		value := d.EstimatedValue
		items[i] = model.Item{
			AccountID:      accountID,
			Name:           d.Name,
			Description:    d.Description,
			Category:       model.Category(d.Category),
			Condition:      model.Condition(d.Condition),
			EstimatedValue: &value,
			Brand:          d.Brand,
			Model:          d.Model,
			SerialNumber:   d.SerialNumber,
			RoomLocation:   "",
			PurchaseDate:   nil,
			PurchasePrice:  nil,
			ImageURL:       bucketURL(i, len(descs), urls),
		}
	}
	return items
}

func bucketURL(i, total int, urls []string) string {
	if len(urls) == 0 || total == 0 {
		return ""
	}
	idx := i * len(urls) / total
	if idx >= len(urls) {
		idx = len(urls) - 1
	}
	return urls[idx]
}
