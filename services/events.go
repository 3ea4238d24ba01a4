package services

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-service/models"

	"go.uber.org/zap"
)

// publishEvent publishes catalog.<kind>.<action> to SNS. Failures are logged only.
func (s *catalogServiceImpl) publishEvent(ctx context.Context, action string, entity models.Entity) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Debug("SNS client not configured, skipping catalog event", zap.String("action", action))
		return
	}

	event := models.CatalogEvent{
		EventType: fmt.Sprintf("catalog.%s.%s", entity.GetKind(), action),
		Kind:      entity.GetKind(),
		ID:        entity.GetID().Hex(),
		Name:      entity.GetName(),
		Slug:      entity.GetSlug(),
		Timestamp: s.now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal catalog event", zap.Error(err))
		return
	}

	attrs := map[string]string{
		"event_type": event.EventType,
		"kind":       string(event.Kind),
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, eventBytes, attrs); err != nil {
		s.logger.Error("Failed to publish catalog event", zap.String("event_type", event.EventType), zap.Error(err))
		return
	}

	s.logger.Info("Published catalog event", zap.String("event_type", event.EventType), zap.String("id", event.ID))
}
