package main

import "github.com/llmbridge/llmbridge/cmd"

func main() {
	cmd.Execute()
}
