package main

import "github.com/vantage-review/vantage/internal/cli"

func main() {
	cli.Execute()
}
