package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ExecuteWithSpan runs a MongoDB operation inside a client span named
// "db.<operation>". fn returns the number of documents it touched, which is
// recorded when positive.
func ExecuteWithSpan(ctx context.Context, collection, operation string, fn func(ctx context.Context) (int64, error)) error {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemKey.String("mongodb"),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", collection),
		),
	)
	defer span.End()

	count, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if count > 0 {
		span.SetAttributes(attribute.Int64("db.result.count", count))
	}
	return nil
}
