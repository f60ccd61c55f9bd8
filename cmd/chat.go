/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/container"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive chat session",
	Long: `Run an interactive chat session against the workflow engine.
Each line you type is processed as one user message: information questions
are answered from the knowledge base, reservation requests go through the
approval flow, and status checks report the current request state.

Type "exit" or "quit" to leave the session.`,
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

		userID, _ := cmd.Flags().GetString("user")
		orchestrator := ctr.Orchestrator()

		showPath, _ := cmd.Flags().GetBool("show-path")

		fmt.Println("AI Chatbot interactive session. Type 'requests' to list requests, 'exit' to quit.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			message := strings.TrimSpace(scanner.Text())
			if message == "" {
				continue
			}
			if message == "exit" || message == "quit" {
				break
			}
			if message == "requests" {
				printRequests(ctr)
				continue
			}

			result := orchestrator.Process(context.Background(), message, userID)
			fmt.Println(result.FinalResponse)
			if result.RequestID != "" {
				fmt.Printf("(request %s, status %s)\n", result.RequestID, result.ApprovalStatus)
			}
			if showPath {
				fmt.Printf("(path: %s)\n", strings.Join(result.StateHistory, " -> "))
			}
		}

		fmt.Println("Bye.")
		return scanner.Err()
	},
}

// printRequests 打印全部审批请求的当前状态
func printRequests(ctr *container.Container) {
	requests, err := ctr.Engine().ListRequests("")
	if err != nil {
		fmt.Printf("failed to list requests: %v\n", err)
		return
	}
	if len(requests) == 0 {
		fmt.Println("No requests yet.")
		return
	}
	for _, req := range requests {
		fmt.Printf("%s  %-8s  %s %s  %s  %s - %s\n",
			req.RequestID, req.Status, req.Name, req.Surname, req.CarNumber, req.StartDate, req.EndDate)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("user", "cli-user", "User ID attached to workflow records")
	chatCmd.Flags().Bool("show-path", false, "Print the visited workflow nodes after each message")
}
