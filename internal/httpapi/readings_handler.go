package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/auth"
	"github.com/kangsudal/nerdycatcher-server/internal/cache"
	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// SensorSink 读数处理管线接口（与 hub 共用同一条管线）
type SensorSink interface {
	Process(ctx context.Context, device models.DeviceIdentity, reading models.SensorReading)
}

// ReadingsHandler 读数相关的 HTTP 接口
// /api/v1/ingest 是 WebSocket 之外的上报通道（HTTP 中转桥），
// 与 ws 通道进入同一条处理管线
type ReadingsHandler struct {
	realtime *cache.RealtimeCache
	verifier auth.Verifier
	ingest   SensorSink
	logger   *zap.Logger
}

// NewReadingsHandler 创建读数处理器
func NewReadingsHandler(realtime *cache.RealtimeCache, verifier auth.Verifier, ingest SensorSink, logger *zap.Logger) *ReadingsHandler {
	return &ReadingsHandler{
		realtime: realtime,
		verifier: verifier,
		ingest:   ingest,
		logger:   logger,
	}
}

// LatestReading GET /api/v1/plants/{id}/latest
// 从实时缓存返回植物的最新读数
func (h *ReadingsHandler) LatestReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/plants/")
	plantID, ok := strings.CutSuffix(rest, "/latest")
	if !ok || plantID == "" || strings.Contains(plantID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	entry, err := h.realtime.GetLatest(r.Context(), plantID)
	if err != nil {
		if err == cache.ErrMiss {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to read realtime cache",
			zap.String("plant_id", plantID),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entry)
}

// ingestRequest HTTP 上报请求体
type ingestRequest struct {
	APIKey      string   `json:"api_key"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	LightLevel  *float64 `json:"light_level"`
}

// IngestReading POST /api/v1/ingest
// 验证设备 API Key 后把读数交给与 WebSocket 相同的处理管线
func (h *ReadingsHandler) IngestReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid json"})
		return
	}
	if req.Temperature == nil || req.Humidity == nil || req.LightLevel == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "temperature, humidity and light_level are required"})
		return
	}

	device, err := h.verifier.VerifyDeviceKey(r.Context(), req.APIKey)
	if err != nil {
		h.logger.Warn("HTTP ingest rejected: device authentication failed",
			zap.Error(err),
		)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	h.ingest.Process(r.Context(), *device, models.SensorReading{
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		LightLevel:  *req.LightLevel,
	})

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
