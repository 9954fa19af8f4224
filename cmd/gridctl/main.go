package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/goliatone/go-datagrid/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := commands.New().ExecuteContext(ctx); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
