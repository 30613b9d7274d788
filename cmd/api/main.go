package main

import (
	"context"
	"fmt"
	"kanbanBoard/internal/app"
	"kanbanBoard/internal/config"
	"kanbanBoard/internal/logger"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.StringP("config", "c", "", "путь к config.yaml или каталогу с ним")
	flag.Parse()

	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфига: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Сервер остановлен с ошибкой", err)
		os.Exit(1)
	}
}
