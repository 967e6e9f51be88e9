package server

import (
	"net/http"

	"github.com/pkg/errors"

	"kanilife/game"
)

// HandleAdminState 返回当前世界快照（新观察端也可用 HTTP 拉取）
// GET /admin/state
func HandleAdminState(latest func() game.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, latest())
	}
}

// HandleAdminFood 手动触发一次食物生成（与游戏循环走同一个收件箱）
// POST /admin/food
func HandleAdminFood(sub Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp, err := sub.Submit(r.Context(), game.SpawnFoodCommand{})
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				http.Error(w, "system unavailable", http.StatusServiceUnavailable)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result":  resp.Result,
			"wait":    resp.Wait.Milliseconds(),
			"mutated": resp.Mutated,
		})
		Log.Infof("admin spawn food: mutated=%v", resp.Mutated)
	}
}

// HandleMetrics 输出处理器运行指标
// GET /metrics
func HandleMetrics(m *Metrics, viewers *ViewerManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"metrics": m.Snapshot(),
			"viewers": viewers.Count(),
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
