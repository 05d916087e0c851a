package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"chat_delivery_service/pkg/config"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof 非 production 且有設定 port 時啟動 pprof 監控伺服器
// 只綁 127.0.0.1, 外部網路無法存取
//
//	curl http://localhost:<port>/debug/pprof/
//	go tool pprof http://localhost:<port>/debug/pprof/profile?seconds=30
//	go tool pprof http://localhost:<port>/debug/pprof/goroutine
func StartPprof(port string) {
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}
	if port == "" {
		return
	}

	addr := "127.0.0.1:" + port
	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Warn("pprof server failed", zap.Error(err))
		}
	}()
}
