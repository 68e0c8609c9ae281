package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DannyMang/theta/internal/shared/id"
)

func newObservedTracer(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return New("theta-test", zap.New(core)), logs
}

func TestStartSpanCreatesRoot(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "root")

	assert.True(t, id.IsValid(span.TraceID.String()))
	assert.True(t, id.IsValid(span.SpanID.String()))
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))
}

func TestStartSpanInheritsTrace(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestCloseDrainsSpans(t *testing.T) {
	tracer, logs := newObservedTracer(t)

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(context.Background(), "failed")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Close()

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	errs := logs.FilterMessage("span completed with error").All()
	require.Len(t, errs, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), errs[0].ContextMap()["status"])

	// submit after close is dropped silently
	tracer.Submit(ok)
}

func TestInjectAndExtractHeaders(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "outbound")

	header := http.Header{}
	InjectHeaders(ctx, header)
	assert.Equal(t, span.TraceID.String(), header.Get(HeaderTraceID))
	assert.Equal(t, span.SpanID.String(), header.Get(HeaderSpanID))

	remote := WithRemoteParent(context.Background(), header)
	assert.Equal(t, span.TraceID, GetTraceID(remote))
	assert.Equal(t, span.SpanID, GetSpanID(remote))
}

func TestWithRemoteParentIgnoresGarbage(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderTraceID, "not-a-trace")

	ctx := WithRemoteParent(context.Background(), header)
	assert.Empty(t, GetTraceID(ctx))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer(t)

	var seen id.TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/tabs/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	incoming := id.NewTraceID()
	req := httptest.NewRequest(http.MethodGet, "/tabs/123", nil)
	req.Header.Set(HeaderTraceID, incoming.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, incoming, seen)
	assert.Equal(t, incoming.String(), w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	tracer.Close()
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "GET /tabs/:id", entries[0].ContextMap()["operation"])
	assert.Equal(t, "204", entries[0].ContextMap()["http.status"])
}
