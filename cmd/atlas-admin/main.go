// Package main is the entry point for the Minerals Atlas admin CLI.
// It operates directly on the configured user store and data sources,
// bypassing the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/config"
	"github.com/afrominerals/atlas/internal/dataset"
	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
	"github.com/afrominerals/atlas/internal/repository/postgres"
	"github.com/afrominerals/atlas/internal/repository/sqlite"
	"github.com/afrominerals/atlas/internal/service"
	"github.com/afrominerals/atlas/internal/sources"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Minerals Atlas Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUser(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "dataset":
		if err := runDataset(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUser(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("user requires a subcommand: create, list, delete")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		username := fs.String("username", "", "username (required)")
		password := fs.String("password", "", "password (required)")
		role := fs.String("role", string(domain.RoleResearcher), "role: Investor, Researcher or Admin")
		email := fs.String("email", "", "email (defaults to <username>@minerals.local)")
		_ = fs.Parse(args[1:])

		if *username == "" || *password == "" {
			return fmt.Errorf("--username and --password are required")
		}

		ctx := context.Background()
		cfg, users, closeStore, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeStore()

		user, err := users.Register(ctx, service.RegisterInput{
			Username:  *username,
			Password:  *password,
			Confirm:   *password,
			Role:      *role,
			Email:     *email,
			AdminCode: cfg.Auth.AdminSecret,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %d (%s, %s)\n", user.ID, user.Username, user.Role)
		return nil

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		_ = fs.Parse(args[1:])

		ctx := context.Background()
		_, users, closeStore, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeStore()

		list, err := users.List(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tEMAIL\tCREATED")
		for _, u := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.Role, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()

	case "delete":
		fs := flag.NewFlagSet("user delete", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		id := fs.String("id", "", "user id (required)")
		_ = fs.Parse(args[1:])

		targetID, err := strconv.ParseInt(*id, 10, 64)
		if err != nil {
			return fmt.Errorf("--id must be a number")
		}

		ctx := context.Background()
		_, users, closeStore, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeStore()

		// The CLI acts as the seeded administrator.
		if err := users.Delete(ctx, domain.SeedAdminID, targetID); err != nil {
			return err
		}
		fmt.Printf("Deleted user %d\n", targetID)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func runDataset(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("dataset requires a subcommand: status, import")
	}

	switch args[0] {
	case "status":
		fs := flag.NewFlagSet("dataset status", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		_ = fs.Parse(args[1:])

		ctx := context.Background()
		repo, err := openDatasetRepository(ctx, *configPath)
		if err != nil {
			return err
		}

		snap, err := repo.Reload(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tSTATUS")
		for _, name := range sources.Names() {
			fmt.Fprintf(tw, "%s\t%s\n", name, snap.Status[name])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nCountries: %d  Minerals: %d  Production: %d  Sites: %d\n",
			len(snap.Countries), len(snap.Minerals), len(snap.Production), len(snap.Sites))
		return nil

	case "import":
		fs := flag.NewFlagSet("dataset import", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		name := fs.String("name", "", "canonical source name (required)")
		file := fs.String("file", "", "path to the CSV file to import (required)")
		_ = fs.Parse(args[1:])

		if *name == "" || *file == "" {
			return fmt.Errorf("--name and --file are required")
		}

		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}

		ctx := context.Background()
		repo, err := openDatasetRepository(ctx, *configPath)
		if err != nil {
			return err
		}

		snap, err := repo.ReplaceSource(ctx, *name, data)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %s (%d bytes), status %s\n", *name, len(data), snap.Status[*name])
		return nil

	default:
		return fmt.Errorf("unknown dataset subcommand: %s", args[0])
	}
}

func openUserService(ctx context.Context, configPath string) (*config.Config, *service.UserService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := zerolog.Nop()

	var (
		repo   repository.UserRepository
		health repository.DatabaseHealth
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		repo, health = postgres.NewUserRepository(db), db
	default:
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return nil, nil, nil, err
		}
		repo, health = sqlite.NewUserRepository(db), db
	}

	users := service.NewUserService(repo, cfg.Auth.AdminSecret, logger)
	if err := users.EnsureSeedAdmin(ctx, cfg.Auth.SeedAdminPassword); err != nil {
		health.Close()
		return nil, nil, nil, err
	}
	return cfg, users, func() { _ = health.Close() }, nil
}

func openDatasetRepository(ctx context.Context, configPath string) (*dataset.Repository, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var store sources.Store
	switch cfg.Sources.Backend {
	case "s3":
		store, err = sources.NewS3Store(ctx, sources.S3Config{
			Region:          cfg.Sources.S3.Region,
			Bucket:          cfg.Sources.S3.Bucket,
			Prefix:          cfg.Sources.S3.Prefix,
			Endpoint:        cfg.Sources.S3.Endpoint,
			AccessKeyID:     cfg.Sources.S3.AccessKeyID,
			SecretAccessKey: cfg.Sources.S3.SecretAccessKey,
			UsePathStyle:    cfg.Sources.S3.UsePathStyle,
		})
	default:
		store, err = sources.NewFilesystemStore(cfg.Sources.DataDir)
	}
	if err != nil {
		return nil, err
	}

	return dataset.NewRepository(store, zerolog.Nop()), nil
}

func printUsage() {
	fmt.Println(`Minerals Atlas Admin CLI

Usage:
  atlas-admin <command> [arguments]

Commands:
  user        Manage users (create, list, delete)
  dataset     Manage data sources (status, import)
  version     Print version information
  help        Show this help message

Examples:
  atlas-admin user create --username alice --password secret --role Researcher
  atlas-admin user list
  atlas-admin user delete --id 3
  atlas-admin dataset status
  atlas-admin dataset import --name minerals.csv --file ./minerals.csv

Use "atlas-admin <command> <subcommand> --help" for flag details.`)
}
