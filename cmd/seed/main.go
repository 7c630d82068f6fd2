package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/internal/repository"
	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/config"
	"github.com/ilumap/pqr-api/pkg/database"
	"github.com/ilumap/pqr-api/pkg/logger"
)

type options struct {
	migrate       bool
	adminEmail    string
	adminPassword string
	adminName     string
	inventoryPath string
}

// inventoryFile is the YAML layout accepted by --inventory.
type inventoryFile struct {
	Fixtures []models.Fixture `yaml:"fixtures"`
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("seed: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, opts, logr); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.BoolVar(&opts.migrate, "migrate", false, "create the database schema before seeding")
	flagSet.StringVar(&opts.adminEmail, "admin-email", "", "email of the ADMIN account to ensure")
	flagSet.StringVar(&opts.adminPassword, "admin-password", "", "password for the ADMIN account")
	flagSet.StringVar(&opts.adminName, "admin-name", "Administrador", "display name for the ADMIN account")
	flagSet.StringVar(&opts.inventoryPath, "inventory", "", "YAML file with the fixture catalog to upsert")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if (opts.adminEmail == "") != (opts.adminPassword == "") {
		return options{}, errors.New("--admin-email and --admin-password must be given together")
	}
	if !opts.migrate && opts.adminEmail == "" && opts.inventoryPath == "" {
		return options{}, errors.New("nothing to do: pass --migrate, --admin-email or --inventory")
	}
	return opts, nil
}

func loadInventory(r io.Reader) ([]models.Fixture, error) {
	var file inventoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	for i, f := range file.Fixtures {
		if strings.TrimSpace(f.Serial) == "" {
			return nil, fmt.Errorf("fixture %d has no serie", i+1)
		}
	}
	return file.Fixtures, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if opts.migrate {
		if err := database.CreateSchema(ctx, db); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		logr.Info("schema ready")
	}

	if opts.adminEmail != "" {
		authSvc := service.NewAuthService(repository.NewUserRepository(db), nil, logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
		user, created, err := authSvc.EnsureAdmin(ctx, opts.adminName, opts.adminEmail, opts.adminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		if created {
			logr.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		} else {
			logr.Info("admin already exists", zap.String("email", user.Email), zap.String("role", string(user.Role)))
		}
	}

	if opts.inventoryPath != "" {
		f, err := os.Open(opts.inventoryPath)
		if err != nil {
			return fmt.Errorf("open inventory: %w", err)
		}
		defer f.Close()

		fixtures, err := loadInventory(f)
		if err != nil {
			return err
		}
		inventory := service.NewInventoryService(repository.NewFixtureRepository(db), nil, 0, logr)
		if err := inventory.Load(ctx, fixtures); err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
	}
	return nil
}
