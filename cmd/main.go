package main

import "duw-notifier/internal/cli"

func main() {
	cli.Execute()
}
