package main

import "github.com/ramiqadoumi/go-earn-flow/services/rewards-api/cli"

func main() {
	cli.Execute()
}
