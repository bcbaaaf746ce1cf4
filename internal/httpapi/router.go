package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（路由数量少，不引入第三方路由）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 WebSocket 接入层）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRelayRoutes 注册中继服务的 HTTP 路由
func (r *Router) RegisterRelayRoutes(ws http.Handler, readings *ReadingsHandler, doctor *DoctorHandler) {
	r.HandleHandler("/ws", ws)

	r.Handle("/api/v1/plants/", readings.LatestReading)
	r.Handle("/api/v1/ingest", readings.IngestReading)

	r.Handle("/health", doctor.HealthCheck)
	r.Handle("/healthz", doctor.HealthCheck)
}
