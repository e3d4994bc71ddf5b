package main

import "github.com/jlaneve/prompt/internal/cli"

func main() {
	cli.Execute()
}
