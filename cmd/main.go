package main

import (
	"context"

	"github.com/AlekseyZapadovnikov/pr-loadgen/cmd/commands"
)

// main передаёт управление дереву команд cobra.
func main() {
	commands.ExecuteContext(context.Background())
}
