/*
Package tracing provides lightweight request tracing.

Every inbound request gets a span; spans are buffered and logged
asynchronously with zap. Trace context travels in X-Trace-ID and X-Span-ID
headers, both on inbound requests and on the outbound page fetches a request
triggers, so a navigate call and the fetch it caused share one trace id.

# Usage

	tracer := tracing.New("theta", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "extract")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

Identifiers are prefixed ULIDs from internal/shared/id ("trc_...", "spn_...").
The span buffer holds 1000 entries; when it is full spans are dropped with a
warning rather than blocking the request.
*/
package tracing
