package rpc

import (
	"context"
	"log"
	"time"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"

	"widgetgen/internal/telemetry"
)

// NewTracingInterceptor opens a span per unary call and logs failures.
func NewTracingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			ctx, span := telemetry.Start(ctx, procedure)
			span.SetAttributes(attribute.String("rpc.procedure", procedure))
			start := time.Now()
			res, err := next(ctx, req)
			if err != nil {
				span.SetAttributes(attribute.String("rpc.code", connect.CodeOf(err).String()))
				log.Printf("rpc %s failed after %s: %v", procedure, time.Since(start).Round(time.Millisecond), err)
			}
			telemetry.End(span, err)
			return res, err
		}
	}
}
