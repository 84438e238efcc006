package main

import "tiku/internal/cli"

func main() {
	cli.Execute()
}
