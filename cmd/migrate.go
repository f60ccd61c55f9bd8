/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to create or update database schema.
This command will:
- Create the approval tables (reservation requests, workflow records)
- Create the storage table (approved reservations)
- Create indexes for optimal query performance

The command uses the database configuration from the config file or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 迁移审批库
		log.Printf("Connecting to approval database: %s", cfg.Database.Path)
		approvalDB, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect approval database: %w", err)
		}
		defer database.Close(approvalDB)

		log.Println("Running approval database migrations...")
		if err := database.MigrateApprovals(approvalDB); err != nil {
			return fmt.Errorf("failed to migrate approval database: %w", err)
		}

		// 3. 迁移预约存储库
		log.Printf("Connecting to storage database: %s", cfg.Storage.Path)
		storageDB, err := database.Open(cfg.Storage.Path, cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("failed to connect storage database: %w", err)
		}
		defer database.Close(storageDB)

		log.Println("Running storage database migrations...")
		if err := database.MigrateStorage(storageDB); err != nil {
			return fmt.Errorf("failed to migrate storage database: %w", err)
		}

		log.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
