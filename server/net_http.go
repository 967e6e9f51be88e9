package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"kanilife/game"
)

const maxCommandBody = 1 << 16

// HandleCommand POST /api/command：解析玩家指令，排队等待结果，
// 按等待提示休眠后再返回结果 JSON
func HandleCommand(sub Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		cmd, err := game.DecodePlayerCommand(body)
		if err != nil {
			Log.Debugf("bad command: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := sub.Submit(r.Context(), cmd)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				Log.Errorf("submit %s: %v", cmd.Kind(), err)
				http.Error(w, "system unavailable", http.StatusServiceUnavailable)
				return
			}
			// 客户端已断开
			Log.Debugf("submit %s: %v", cmd.Kind(), err)
			return
		}

		if err := sleepCtx(r.Context(), resp.Wait); err != nil {
			return
		}
		writeJSON(w, http.StatusOK, resp.Result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Warnf("write json: %v", err)
	}
}
