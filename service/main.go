package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
)

// Service structure
type Service struct {
	cfg       config.Config
	repo      queries.Store
	publisher events.Publisher
	tokens    *model.TokenSet
}

// NewService wires the business operations on top of a store and an event publisher
func NewService(cfg config.Config, repo queries.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	tokens := model.NewTokenSet(cfg.Tokens)
	log.Info().Str("section", "service").Strs("tokens", tokenNames(tokens)).Msg("Service initialized")
	return &Service{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		tokens:    tokens,
	}
}

// GetRepo godoc
func (service *Service) GetRepo() queries.Store {
	return service.repo
}

// Tokens returns the configured token set
func (service *Service) Tokens() *model.TokenSet {
	return service.tokens
}

// Close flushes pending events
func (service *Service) Close() {
	if err := service.publisher.Close(); err != nil {
		log.Error().Err(err).Str("section", "service").Msg("Unable to close the event publisher")
	}
}

// publishTimeout bounds the delivery of an event outside of the request that caused it
const publishTimeout = 5 * time.Second

// publish sends an event once the state it describes is committed. Failures are logged only.
func (service *Service) publish(eventType, key string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := service.publisher.Publish(ctx, eventType, key, payload); err != nil {
		log.Error().Err(err).
			Str("section", "service").
			Str("event", eventType).
			Str("key", key).
			Msg("Unable to publish event")
	}
}

func tokenNames(tokens *model.TokenSet) []string {
	names := []string{}
	for _, token := range tokens.List() {
		names = append(names, token.String())
	}
	return names
}

func (service *Service) validateToken(token model.TokenType, field string) error {
	if token == "" {
		return model.InvalidInput("%s is required", field)
	}
	if !service.tokens.Has(token) {
		return model.InvalidInput("unsupported %s %s", field, token)
	}
	return nil
}
