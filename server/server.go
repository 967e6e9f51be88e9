package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Server 把处理器、游戏循环、观察端推送和 HTTP 接口组装在一起
type Server struct {
	cfg     Config
	proc    *Processor
	viewers *ViewerManager
}

// New 创建服务；proc 必须尚未 Run
func New(cfg Config, proc *Processor) *Server {
	return &Server{
		cfg:     cfg,
		proc:    proc,
		viewers: NewViewerManager(proc.Latest),
	}
}

// Routes HTTP 路由
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/command", HandleCommand(s.proc))
	mux.HandleFunc("/ws", s.viewers.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/state", HandleAdminState(s.proc.Latest))
	mux.HandleFunc("/admin/food", HandleAdminFood(s.proc))
	mux.HandleFunc("/metrics", HandleMetrics(s.proc.Metrics(), s.viewers))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

// Run 启动所有协程并监听，直到 ctx 结束后优雅退出
func (s *Server) Run(ctx context.Context) error {
	loopCtx, cancelLoops := context.WithCancel(context.Background())
	defer cancelLoops()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.proc.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		s.viewers.Run(loopCtx, s.proc.Updates())
	}()
	go func() {
		defer wg.Done()
		if err := RunGameCycle(loopCtx, s.proc); err != nil {
			Log.Errorf("game cycle exited: %v", err)
		}
	}()

	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Routes()}
	errCh := make(chan error, 1)
	go func() {
		Log.Infof("kani-life listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = errors.Wrap(err, "listen")
	}

	Log.Info("Shutting down...")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	// 先停 HTTP，让正在等待结果的请求拿到回复，再停处理器
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "http shutdown")
	}
	cancelLoops()
	wg.Wait()
	return runErr
}
