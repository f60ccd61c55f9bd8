/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikita-k/ai-chatbot/internal/api"
	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/container"
	"github.com/mikita-k/ai-chatbot/internal/metrics"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the AI Chatbot API server.
The server will listen on the configured host and port and provide
REST API interfaces for chat, approval requests and stored reservations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. telegram 通道下启动管理员决策轮询
		rootCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if ctr.TelegramChannel() != nil {
			resolver := ctr.AdminResolver()
			go func() {
				if err := resolver.Run(rootCtx); err != nil && rootCtx.Err() == nil {
					log.Printf("admin resolver stopped: %v", err)
				}
			}()
		}

		// 4. 启动指标收集器
		collector := metrics.NewCollector(ctr.ApprovalDB(), 15*time.Second)
		collector.Start()
		defer collector.Stop()

		// 5. 设置路由
		router := api.SetupRoutes(api.RouterDeps{
			Config:       cfg,
			Orchestrator: ctr.Orchestrator(),
			Requests:     ctr.Requests(),
			Reservations: ctr.Reservations(),
			Hub:          ctr.Hub(),
			Publisher:    ctr.Hub(),
			ApprovalDB:   ctr.ApprovalDB(),
			StorageDB:    ctr.StorageDB(),
		})

		// 6. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")
		cancel()

		// 优雅关闭
		ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
