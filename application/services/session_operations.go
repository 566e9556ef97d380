package services

import (
	"context"

	"taxonomy/application/projections"
	"taxonomy/domain/core/entities"
)

type sessionOperations struct {
	service   *TaxonomyService
	sessionID string
	apiKey    string
}

// Operations binds the service to one session and one caller's credentials
// so projected nodes can carry ready-to-call actions.
func (s *TaxonomyService) Operations(sessionID, apiKey string) projections.Operations {
	return &sessionOperations{service: s, sessionID: sessionID, apiKey: apiKey}
}

func (o *sessionOperations) Generate(ctx context.Context, key string, numCategories int, generationMethod string) error {
	_, err := o.service.Generate(ctx, GenerateRequest{
		SessionID:        o.sessionID,
		NodeKey:          key,
		NumCategories:    numCategories,
		GenerationMethod: generationMethod,
		APIKey:           o.apiKey,
	})
	return err
}

func (o *sessionOperations) Classify(ctx context.Context, key string) error {
	_, err := o.service.Classify(ctx, ClassifyRequest{SessionID: o.sessionID, NodeKey: key, APIKey: o.apiKey})
	return err
}

func (o *sessionOperations) Delete(ctx context.Context, key string) error {
	_, err := o.service.Delete(ctx, o.sessionID, key)
	return err
}

func (o *sessionOperations) Edit(ctx context.Context, key string, category entities.Category, items []entities.Item) error {
	_, err := o.service.Edit(ctx, EditRequest{SessionID: o.sessionID, NodeKey: key, Category: category, Items: items})
	return err
}
