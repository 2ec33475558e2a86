package main

import "github.com/example/bookinghub/internal/interfaces/cli"

func main() {
	cli.Execute()
}
