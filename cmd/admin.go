/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/container"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Run the Telegram admin resolver",
	Long: `Run the Telegram admin resolver as a standalone process.
It long-polls the Telegram Bot API for administrator replies of the form
"approve REQ-..." or "reject REQ-... <reason>" and applies them to the
matching pending requests.

Requires approval.channel to be set to "telegram" with bot credentials configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Approval.Channel != "telegram" {
			return fmt.Errorf("admin command requires approval.channel=telegram, got %q", cfg.Approval.Channel)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		resolver := ctr.AdminResolver()
		if resolver == nil {
			return fmt.Errorf("telegram channel is not configured")
		}

		// 3. 轮询直到收到中断信号
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-quit
			log.Println("Shutting down admin resolver...")
			cancel()
		}()

		log.Println("Admin resolver started, waiting for Telegram commands...")
		if err := resolver.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("admin resolver failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
}
