package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"medsupply/internal/domain"

	"gorm.io/gorm"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if r.db == nil {
		return domain.AuditEvent{}, errDBUnavailable
	}
	if event.EventType == "" {
		return domain.AuditEvent{}, errors.New("event_type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, err
	}

	model := AuditEventModel{
		EventType:   event.EventType,
		Actor:       event.Actor,
		TargetID:    stringPtrIfNotEmpty(event.TargetID),
		Result:      string(event.Result),
		ErrorCode:   stringPtrIfNotEmpty(event.ErrorCode),
		PayloadJSON: payloadJSON,
		CreatedAt:   event.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.AuditEvent{}, err
	}
	event.ID = model.ID
	return event, nil
}

func (r *AuditEventRepository) ListByActor(ctx context.Context, actor string) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("actor = ?", actor).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		var payload map[string]any
		if err := json.Unmarshal(model.PayloadJSON, &payload); err != nil {
			return nil, err
		}
		out = append(out, domain.AuditEvent{
			ID:        model.ID,
			EventType: model.EventType,
			Actor:     model.Actor,
			TargetID:  stringValue(model.TargetID),
			Result:    domain.AuditResult(model.Result),
			ErrorCode: stringValue(model.ErrorCode),
			Payload:   payload,
			CreatedAt: model.CreatedAt.UTC(),
		})
	}
	return out, nil
}
