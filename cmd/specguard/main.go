package main

import "github.com/ppiankov/specguard/internal/cli"

func main() {
	cli.Execute()
}
