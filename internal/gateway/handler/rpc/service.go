package rpc

import (
	"net/http"

	"connectrpc.com/connect"
)

const WidgetServiceName = "widgetgen.v1.WidgetService"

const (
	ValidateProcedure     = "/" + WidgetServiceName + "/Validate"
	RenderProcedure       = "/" + WidgetServiceName + "/Render"
	GenerateProcedure     = "/" + WidgetServiceName + "/Generate"
	RefineProcedure       = "/" + WidgetServiceName + "/Refine"
	ListSessionsProcedure = "/" + WidgetServiceName + "/ListSessions"
	GetSessionProcedure   = "/" + WidgetServiceName + "/GetSession"
	ListStylesProcedure   = "/" + WidgetServiceName + "/ListStyles"
	ExportProcedure       = "/" + WidgetServiceName + "/Export"
)

// NewWidgetServiceHandler mounts every WidgetService procedure. Requests and
// responses are google.protobuf.Struct messages.
func NewWidgetServiceHandler(h *WidgetHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ValidateProcedure, connect.NewUnaryHandler(ValidateProcedure, h.Validate, opts...))
	mux.Handle(RenderProcedure, connect.NewUnaryHandler(RenderProcedure, h.Render, opts...))
	mux.Handle(GenerateProcedure, connect.NewUnaryHandler(GenerateProcedure, h.Generate, opts...))
	mux.Handle(RefineProcedure, connect.NewUnaryHandler(RefineProcedure, h.Refine, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, h.ListSessions, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, h.GetSession, opts...))
	mux.Handle(ListStylesProcedure, connect.NewUnaryHandler(ListStylesProcedure, h.ListStyles, opts...))
	mux.Handle(ExportProcedure, connect.NewUnaryHandler(ExportProcedure, h.Export, opts...))
	return "/" + WidgetServiceName + "/", mux
}
