package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rps_webapp/internal/db"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default: list them)")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	names, err := migrations.Names()
	if err != nil {
		logger.Fatal("list migrations", "error", err)
	}
	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect", "error", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}
	for _, name := range names {
		fmt.Printf("applied %s\n", name)
	}
}
