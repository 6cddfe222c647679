package main

import "github.com/ramiqadoumi/go-earn-flow/services/notifier/cli"

func main() {
	cli.Execute()
}
