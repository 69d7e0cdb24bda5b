package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// requireMethod 方法不匹配时返回 405
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterHealthRoutes 注册健康分析 API 路由
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/api/v1/health/simulate", requireMethod(http.MethodPost, h.Simulate))
	r.Handle("/api/v1/health/analyze", requireMethod(http.MethodPost, h.Analyze))
	r.Handle("/api/v1/health/realtime", requireMethod(http.MethodPost, h.Realtime))
	r.Handle("/api/v1/health/users", requireMethod(http.MethodGet, h.Users))

	// history/{user_id}
	r.Handle("/api/v1/health/history/", requireMethod(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		userID := strings.TrimPrefix(req.URL.Path, "/api/v1/health/history/")
		if userID == "" || strings.Contains(userID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.History(w, req, userID)
	}))

	// statistics/{user_id}
	r.Handle("/api/v1/health/statistics/", requireMethod(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		userID := strings.TrimPrefix(req.URL.Path, "/api/v1/health/statistics/")
		if userID == "" || strings.Contains(userID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Statistics(w, req, userID)
	}))

	// export/{user_id}?format=csv|xlsx
	r.Handle("/api/v1/health/export/", requireMethod(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		userID := strings.TrimPrefix(req.URL.Path, "/api/v1/health/export/")
		if userID == "" || strings.Contains(userID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Export(w, req, userID)
	}))

	// dashboard/{user_id} 与 dashboard/{user_id}/stream
	r.Handle("/api/v1/health/dashboard/", requireMethod(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/health/dashboard/")
		if userID, ok := strings.CutSuffix(rest, "/stream"); ok {
			if userID == "" || strings.Contains(userID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.DashboardStream(w, req, userID)
			return
		}
		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Dashboard(w, req, rest)
	}))

	r.Handle("/api/v1/model/info", requireMethod(http.MethodGet, h.ModelInfo))
}
