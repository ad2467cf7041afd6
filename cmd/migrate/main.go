package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"users-api/internal/config"
	"users-api/internal/database"
	"users-api/internal/migrations"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	driver := cfg.Database.Driver
	log := logger.WithField("driver", driver)

	switch args[0] {
	case "up":
		if err := migrations.Up(db, driver); err != nil {
			log.Fatalf("up failed: %v", err)
		}
		log.Info("migrations: up completed")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatalf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		if err := migrations.Down(db, driver, steps); err != nil {
			log.Fatalf("down failed: %v", err)
		}
		log.WithField("steps", steps).Info("migrations: down completed")

	case "version":
		version, dirty, ok, err := migrations.Version(db, driver)
		if err != nil {
			log.Fatalf("version failed: %v", err)
		}
		if !ok {
			fmt.Println("version: none")
			return
		}
		fmt.Printf("version: %d  dirty: %v\n", version, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("force: invalid version %q", args[1])
		}
		if err := migrations.Force(db, driver, v); err != nil {
			log.Fatalf("force failed: %v", err)
		}
		log.WithField("version", v).Info("migrations: forced")

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Rollback N migrations (default: 1)
  version      Print current migration version
  force <V>    Force set migration version (bypass dirty state)

Environment:
  DB_DRIVER    sqlite (default) or postgres
  DB_PATH      sqlite database file (default: data/users.db)
  PG_HOST, PG_PORT, PG_DATABASE, PG_USER, PG_PASSWORD, PG_SSLMODE`)
}
