// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"

	"chat-platform/internal/agent"
	apihttp "chat-platform/internal/api/http"
	"chat-platform/internal/app"
)

// App API 应用，装配 HTTP Router 与 Handler
type App struct {
	bootstrap *app.Bootstrap
	hertz     *server.Hertz
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	// 启动即验证一次完整装配，配置问题在这里暴露而不是第一个请求时
	if _, err := bootstrap.NewRouterForSession("startup-probe"); err != nil {
		return nil, fmt.Errorf("装配编排器失败: %w", err)
	}
	return &App{bootstrap: bootstrap}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	cfg := a.bootstrap.Config
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// Hertz 自身的日志走 slog 扩展，与应用日志配置对齐
	output := os.Stdout
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	switch cfg.Log.Level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	sessions := apihttp.NewSessionManager(func(sessionID string) (*agent.Router, error) {
		return a.bootstrap.NewRouterForSession(sessionID)
	})
	handler := apihttp.NewHandler(sessions, a.bootstrap.Policy, a.bootstrap.LongTerm,
		a.bootstrap.Indexed.Available(), a.bootstrap.Logger)

	a.hertz = apihttp.NewRouter(handler).Build(addr)
	return a.hertz.Run()
}

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	a.bootstrap.Close()
	return nil
}
