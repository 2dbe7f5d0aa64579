package producer

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"care-link-platform/backend/internal/telemetry"
)

// OTelProducer emits security events as OpenTelemetry log records. Used when
// no Kafka broker is configured but an OTLP collector is: events then travel
// the same pipe as application logs.
type OTelProducer struct {
	logger otellog.Logger
}

// NewOTelProducer returns a producer over the given LoggerProvider, or nil
// when provider is nil.
func NewOTelProducer(provider *sdklog.LoggerProvider) *OTelProducer {
	if provider == nil {
		return nil
	}
	return &OTelProducer{logger: provider.Logger("carelink.security")}
}

// Emit converts the event to an OTel log record and emits it.
func (p *OTelProducer) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if event.Metadata != "" {
		rec.SetBody(otellog.StringValue(event.Metadata))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", event.SessionID))
	}
	if event.EventType != "" {
		rec.AddAttributes(otellog.String("event_type", event.EventType))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

// Close is a no-op; the LoggerProvider owns exporter shutdown.
func (p *OTelProducer) Close() error { return nil }
