package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/panyam/vmsim/cmd/vmsim/commands"
)

func main() {
	// .env is optional for a CLI tool; flags and env vars win anyway.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded env file: .env")
	}

	if os.Getenv("VMSIM_ENV") == "dev" {
		logger := slog.New(NewPrettyHandler(os.Stderr, PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		}))
		slog.SetDefault(logger)
	}

	commands.Execute()
}
