package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crucial707/pokecollect/cmd/pokedex/catalog"
	"github.com/crucial707/pokecollect/cmd/pokedex/migrate"
	"github.com/crucial707/pokecollect/cmd/pokedex/root"
	"github.com/crucial707/pokecollect/cmd/pokedex/users"
	"github.com/crucial707/pokecollect/internal/config"
	"github.com/crucial707/pokecollect/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogFormat, cfg.Env)

	rootCmd := root.GetRoot()
	migrate.InitMigrate(rootCmd)
	catalog.InitCatalog(rootCmd)
	users.InitUsers(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
