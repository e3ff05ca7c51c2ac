package server

import (
	"net/http"

	"connectrpc.com/connect"

	"widgetgen/internal/gateway/handler/rpc"
	"widgetgen/internal/gateway/middleware"
)

func NewMux(widgetHandler *rpc.WidgetHandler, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// RPC
	mux.Handle(rpc.NewWidgetServiceHandler(widgetHandler, connect.WithInterceptors(rpc.NewTracingInterceptor())))

	// Live preview
	mux.HandleFunc("/ws/preview", widgetHandler.HandlePreviewWS)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(corsOrigins...)(mux)
}
