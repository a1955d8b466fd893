package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bodygoal/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.bodygoal", "bodygoal", "test")

	userID := "user-1"
	publisher.On("Publish", mock.Anything, "audit.bodygoal", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "bodygoal" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == "user-1" &&
			envelope.Payload.Area == AreaAuth &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "user logged in" &&
			envelope.OccurredAt != ""
	})).Return(nil).Once()

	emitter.Emit(context.Background(), AreaAuth, "INFO", "user logged in", "req-1", &userID)

	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.bodygoal", "bodygoal", "test")

	publisher.On("Publish", mock.Anything, "audit.bodygoal", mock.Anything).Return(assert.AnError).Once()

	emitter.Emit(context.Background(), AreaChat, "INFO", "friend request sent", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestEmitNilSafe(t *testing.T) {
	var emitter *AuditEmitter
	emitter.Emit(context.Background(), AreaDebug, "INFO", "noop", "req-3", nil)

	NewAuditEmitter(nil, "audit.bodygoal", "bodygoal", "test").
		Emit(context.Background(), AreaDebug, "INFO", "noop", "req-3", nil)
}
