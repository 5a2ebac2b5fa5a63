package main

import "cose-ai/backend/internal/cli"

func main() {
	cli.Execute()
}
