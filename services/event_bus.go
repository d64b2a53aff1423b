package services

import (
	"context"
	"fmt"
	"time"

	"nutrilens/models"
)

// Notifier is told about state changes users may want to see live.
type Notifier interface {
	IntakeCreated(userID uint, rec *models.IntakeRecord)
	EvaluationCompleted(userID uint, res *EvaluationResult)
}

// Pusher delivers mobile push notifications.
type Pusher interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

// EventBus fans events out to websocket clients and, for evaluations, to
// mobile push. Either sink may be nil.
type EventBus struct {
	rt *RealtimeHub
	ps Pusher
}

func NewEventBus(rt *RealtimeHub, ps Pusher) *EventBus {
	return &EventBus{rt: rt, ps: ps}
}

func (b *EventBus) IntakeCreated(userID uint, rec *models.IntakeRecord) {
	if b.rt == nil {
		return
	}
	b.rt.Publish(userID, Event{Kind: "intake.created", Data: IntakeRecordResponse(rec)})
}

func (b *EventBus) EvaluationCompleted(userID uint, res *EvaluationResult) {
	if b.rt != nil {
		b.rt.Publish(userID, Event{Kind: "evaluation.completed", Data: res})
	}
	if b.ps == nil {
		return
	}
	date, grade := res.EvaluatedDate, res.Grade
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.ps.PushToUser(ctx, userID,
			"Daily evaluation ready",
			fmt.Sprintf("Your diet grade for %s is %s.", date, grade),
			map[string]string{"type": "evaluation", "date": date, "grade": grade},
		)
	}()
}
