// resumectl 是命令行版的简历编辑器：登录后在交互式 shell 中分步编辑、保存、预览与导出。
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"resumeBuilder/internal/client"
)

func main() {
	home, _ := os.UserHomeDir()
	var (
		apiURL    = flag.String("api", envOr("RESUME_API_URL", "http://localhost:5000/api"), "API 根地址")
		email     = flag.String("email", os.Getenv("RESUME_EMAIL"), "登录邮箱")
		password  = flag.String("password", os.Getenv("RESUME_PASSWORD"), "登录密码（默认读 RESUME_PASSWORD）")
		name      = flag.String("register", "", "以该名称注册新账号后登录")
		draftPath = flag.String("draft", filepath.Join(home, ".resumectl", "draft.json"), "本地草稿缓存文件")
		timeout   = flag.Duration("timeout", 60*time.Second, "单次请求超时")
		verbose   = flag.Bool("v", false, "输出调试日志")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *email == "" || *password == "" {
		log.Fatal("missing credentials: set --email and --password (or RESUME_EMAIL / RESUME_PASSWORD)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session, err := client.New(*apiURL, &http.Client{Timeout: *timeout})
	if err != nil {
		log.Fatalf("init client: %v", err)
	}

	if *name != "" {
		_, err = session.Register(ctx, *name, *email, *password)
	} else {
		_, err = session.Login(ctx, *email, *password)
	}
	if err != nil {
		log.Fatalf("sign in: %v", err)
	}
	defer func() {
		if err := session.Logout(context.Background()); err != nil {
			logger.Warn("logout failed", slog.Any("error", err))
		}
	}()

	sh := newShell(session, *draftPath, os.Stdout, logger)
	if err := sh.run(ctx, os.Stdin); err != nil {
		log.Printf("resumectl: %v", err)
	}
	sh.close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
