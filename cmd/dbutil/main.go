package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/repository"
	"github.com/noah-isme/persona-chat-api/internal/store"
	"github.com/noah-isme/persona-chat-api/pkg/config"
	"github.com/noah-isme/persona-chat-api/pkg/database"
	"github.com/noah-isme/persona-chat-api/pkg/export"
	"github.com/noah-isme/persona-chat-api/pkg/logger"
	"github.com/noah-isme/persona-chat-api/pkg/storage"
)

const usage = `usage: dbutil <command> [flags]

commands:
  migrate                 apply pending store migrations
  seed                    create the demo accounts
  reset -force            back up, then empty the store
  stats                   print record counts
  clean                   remove expired and consumed tokens
  backup                  snapshot the store to BACKUP_DIR (and S3 when configured)
  backups                 list local backups
  prune-backups -older-than 720h
  restore <file>          back up, then replace the store with file
  prune-audit -older-than 2160h
  export-accounts -format csv|pdf [-out file]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, logr, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "dbutil %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	force := fs.Bool("force", false, "confirm destructive commands")
	olderThan := fs.Duration("older-than", 0, "age threshold for prune commands")
	format := fs.String("format", "csv", "export format: csv or pdf")
	outPath := fs.String("out", "", "export destination (default: BACKUP_DIR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.Path, store.WithLogger(logr.Named("store")))
	if err != nil {
		return err
	}
	backups, err := storage.NewLocalStorage(cfg.Backup.Dir)
	if err != nil {
		return err
	}

	t := &tool{
		store:      db,
		backups:    backups,
		logger:     logr,
		out:        os.Stdout,
		bcryptCost: cfg.Security.BcryptCost,
		now:        time.Now,
	}

	switch cmd {
	case "backup", "restore", "reset":
		up, err := storage.NewS3Uploader(ctx, cfg.Backup)
		switch {
		case err == nil:
			t.uploader = up
		case !errors.Is(err, storage.ErrS3NotConfigured):
			return err
		}
	case "prune-audit":
		pg, err := database.NewPostgres(ctx, cfg.Audit)
		if err != nil {
			return err
		}
		if pg != nil {
			defer pg.Close() //nolint:errcheck
			t.audit = repository.NewAuditRepository(pg)
		}
	}

	switch cmd {
	case "migrate":
		return t.migrate()
	case "seed":
		return t.seed()
	case "reset":
		return t.reset(*force)
	case "stats":
		return t.stats()
	case "clean":
		return t.clean(ctx)
	case "backup":
		_, err := t.backup(ctx)
		return err
	case "backups":
		return t.listBackups()
	case "prune-backups":
		return t.pruneBackups(*olderThan)
	case "restore":
		return t.restore(ctx, fs.Arg(0))
	case "prune-audit":
		return t.pruneAudit(ctx, *olderThan)
	case "export-accounts":
		f, err := export.ParseFormat(*format)
		if err != nil {
			return err
		}
		_, err = t.exportAccounts(f, *outPath)
		return err
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
