/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/mikita-k/ai-chatbot/cmd"

func main() {
	cmd.Execute()
}
