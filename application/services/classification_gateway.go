package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// GenerateInput describes one category generation request
type GenerateInput struct {
	Items            []entities.Item
	Category         entities.Category
	NumCategories    int
	GenerationMethod string
	APIKey           string
}

// ClassifyOutput is a reconciled classification response
type ClassifyOutput struct {
	// Pairs carry the request's own item objects, matched by id
	Pairs []entities.ClassifiedItem
	// Omitted holds request items the response did not mention. The tree
	// reports them as unassigned when the pairs are applied.
	Omitted []entities.Item
}

// ClassificationGateway shapes requests to the classification service and
// validates what comes back. It holds no state between calls and never
// retries.
type ClassificationGateway struct {
	client  ports.ClassifierClient
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewClassificationGateway creates a gateway over a classifier transport
func NewClassificationGateway(client ports.ClassifierClient, metrics ports.Metrics, logger *zap.Logger) *ClassificationGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassificationGateway{client: client, metrics: metrics, logger: logger}
}

// Generate asks for child categories of in.Category. Blank names fail the
// whole call; repeated names keep their first occurrence; a positive
// NumCategories caps the result.
func (g *ClassificationGateway) Generate(ctx context.Context, in GenerateInput) ([]entities.Category, error) {
	start := time.Now()
	resp, err := g.client.GenerateClasses(ctx, ports.GenerateClassesRequest{
		Items:            nonNilItems(in.Items),
		Category:         in.Category,
		NumCategories:    in.NumCategories,
		GenerationMethod: in.GenerationMethod,
		APIKey:           in.APIKey,
	})
	g.record("generate_classes", err, start)
	if err != nil {
		return nil, pkgerrors.NewGenerationFailed(err)
	}

	seen := make(map[string]bool, len(resp.Categories))
	categories := make([]entities.Category, 0, len(resp.Categories))
	for idx, proposed := range resp.Categories {
		category := entities.NewCategory(proposed.Name, proposed.Description)
		if category.Name == "" {
			return nil, pkgerrors.NewGenerationFailed(fmt.Errorf("category at index %d has a blank name", idx))
		}
		if seen[category.Name] {
			g.logger.Debug("Dropping repeated category name", zap.String("name", category.Name))
			continue
		}
		seen[category.Name] = true
		categories = append(categories, category)
	}

	if in.NumCategories > 0 && len(categories) > in.NumCategories {
		categories = categories[:in.NumCategories]
	}
	return categories, nil
}

// Classify assigns items to categories. Response items are matched back to
// the request by id; an unknown id or one returned more often than it was
// sent fails with ClassificationDataMismatch.
func (g *ClassificationGateway) Classify(ctx context.Context, categories []entities.Category, items []entities.Item, apiKey string) (*ClassifyOutput, error) {
	start := time.Now()
	resp, err := g.client.ClassifyItems(ctx, ports.ClassifyItemsRequest{
		Categories: categories,
		Items:      nonNilItems(items),
		APIKey:     apiKey,
	})
	g.record("classify_items", err, start)
	if err != nil {
		return nil, pkgerrors.NewClassificationFailed(err)
	}

	byID := make(map[string][]entities.Item, len(items))
	for _, item := range items {
		byID[item.ID] = append(byID[item.ID], item)
	}

	out := &ClassifyOutput{Pairs: make([]entities.ClassifiedItem, 0, len(resp.ClassifiedItems))}
	for _, classified := range resp.ClassifiedItems {
		queue, known := byID[classified.Item.ID]
		if !known {
			return nil, pkgerrors.NewClassificationDataMismatch(classified.Item.ID, "response names an item that was not sent")
		}
		if len(queue) == 0 {
			return nil, pkgerrors.NewClassificationDataMismatch(classified.Item.ID, "response repeats an item")
		}
		byID[classified.Item.ID] = queue[1:]
		out.Pairs = append(out.Pairs, entities.ClassifiedItem{
			Item:     queue[0],
			Category: entities.NewCategory(classified.Category.Name, classified.Category.Description),
		})
	}

	for _, item := range items {
		queue := byID[item.ID]
		if len(queue) == 0 {
			continue
		}
		byID[item.ID] = queue[1:]
		out.Omitted = append(out.Omitted, item)
	}

	if len(out.Omitted) > 0 {
		g.logger.Warn("Classifier omitted items",
			zap.Int("omitted", len(out.Omitted)),
			zap.Int("requested", len(items)),
		)
	}
	return out, nil
}

func (g *ClassificationGateway) record(operation string, err error, start time.Time) {
	if g.metrics != nil {
		g.metrics.RecordRemoteCall("classifier", operation, err, time.Since(start))
	}
}

func nonNilItems(items []entities.Item) []entities.Item {
	if items == nil {
		return []entities.Item{}
	}
	return items
}

func trimmedNames(categories []entities.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = strings.TrimSpace(c.Name)
	}
	return names
}
