// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/handler"
	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/qdrant"
)

func main() {
	// 1. 初始化配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		panic(err)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化向量库客户端；初始化失败时服务仍然启动，
	// 相关接口返回明确的未连接错误而不是崩溃
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	qdrantClient := qdrant.NewClient(cfg.Qdrant)
	storeConnected := true
	if err := qdrantClient.EnsureCollection(startupCtx, cfg.Qdrant.Dimension); err != nil {
		log.Errorf("[startup] Qdrant 初始化失败, 上传与查询接口将返回未连接错误: %v", err)
		storeConnected = false
	}

	// 4. 初始化 Embedding 与补全服务客户端 (依赖注入)
	embeddingClient, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		log.Fatalf("Embedding 客户端初始化失败: %v", err)
	}
	llmClient := llm.NewClient(cfg.LLM)

	// 5. 启动检查：提示缺失的关键配置与不可达的依赖
	runStartupChecks(startupCtx, cfg, llmClient, storeConnected)

	// 6. 初始化文件处理管道与问答服务
	var store *qdrant.Client
	if storeConnected {
		store = qdrantClient
	}
	processor := pipeline.NewProcessor(embeddingClient, vectorStoreOrNil(store), cfg.Chunk.Size)
	queryService := service.NewQueryService(embeddingClient, vectorSearcherOrNil(store), llmClient, cfg.Chunk.TopK)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	r.GET("/health", handler.NewHealthHandler(llmClient, storeConnected).Health)
	r.POST("/upload", handler.NewUploadHandler(processor).Upload)
	r.POST("/query", handler.NewQueryHandler(queryService).Query)

	// 静态页面与前端资源目录
	frontendDir := cfg.Frontend.Dir
	r.Static("/frontend", frontendDir)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(frontendDir, "index.html"))
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// runStartupChecks 在启动时做一次性的配置与依赖检查，只打日志不中断启动。
func runStartupChecks(ctx context.Context, cfg *config.Config, llmClient llm.Client, storeConnected bool) {
	var missing []string
	if cfg.Qdrant.URL == "" {
		missing = append(missing, "qdrant.url")
	}
	if cfg.Qdrant.APIKey == "" {
		missing = append(missing, "qdrant.api_key")
	}
	if cfg.Embedding.Provider == "huggingface" && cfg.Embedding.APIKey == "" {
		missing = append(missing, "embedding.api_key")
	}
	if len(missing) > 0 {
		log.Warnf("[startup] 缺失关键配置项: %v", missing)
	}

	if !storeConnected {
		log.Warnf("[startup] Qdrant 未连接, 请检查 %s 是否可达", cfg.Qdrant.URL)
	}
	if !llmClient.HealthCheck(ctx) {
		log.Warnf("[startup] 补全服务 %s 未响应健康检查", cfg.LLM.BaseURL)
	}
}

// vectorStoreOrNil 把可能为 nil 的具体客户端转换为接口值，
// 避免出现携带 nil 指针的非 nil 接口。
func vectorStoreOrNil(client *qdrant.Client) pipeline.VectorStore {
	if client == nil {
		return nil
	}
	return client
}

func vectorSearcherOrNil(client *qdrant.Client) service.VectorSearcher {
	if client == nil {
		return nil
	}
	return client
}
