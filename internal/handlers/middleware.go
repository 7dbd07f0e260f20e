package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rschio/walletledger/internal/web"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func middlewareWeb(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "web",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()

			v := web.Values{
				TraceID:   span.SpanContext().TraceID().String(),
				RequestID: middleware.GetReqID(ctx),
				Tracer:    tracer,
				Now:       time.Now().UTC(),
			}
			ctx = web.SetValues(ctx, &v)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) middlewareLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.log.InfoContext(ctx, "request started", "method", r.Method, "path", r.URL.Path,
			"remoteaddr", r.RemoteAddr)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path,
			"statuscode", ww.Status(), "bytes", ww.BytesWritten(),
			"since", time.Since(web.GetTime(ctx)).String())
	})
}
