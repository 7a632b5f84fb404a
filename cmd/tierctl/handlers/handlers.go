// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework. Everything that talks to AWS or the terminal goes through
// the factory variables below, which tests replace.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/logging"
	awsplatform "github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/platform/s3"
	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/util/naming"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newCloud creates the AWS client for the stack's region.
	newCloud = func(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts) (awsplatform.InfrastructureManager, error) {
		awsCfg, err := awsplatform.LoadConfig(ctx, awsplatform.AuthOpts{
			Region:  cfg.Region,
			Profile: os.Getenv("AWS_PROFILE"),
		})
		if err != nil {
			return nil, err
		}
		return awsplatform.NewRealClient(awsCfg, awsplatform.WithTimeouts(timeouts)), nil
	}

	// newObjectStore creates the S3 client for the state bucket.
	newObjectStore = func(ctx context.Context, cfg *config.Config) (provisioning.ObjectStore, error) {
		awsCfg, err := awsplatform.LoadConfig(ctx, awsplatform.AuthOpts{
			Region:  cfg.Region,
			Profile: os.Getenv("AWS_PROFILE"),
		})
		if err != nil {
			return nil, err
		}
		return s3.NewClient(awsCfg, os.Getenv("TIERSTACK_S3_ENDPOINT")), nil
	}

	// newLogger creates the logger behind the provisioning observer.
	newLogger = func() (*zap.Logger, error) {
		cfg := logging.DefaultConfig()
		cfg.Format = logging.FormatConsole
		cfg.OutputPaths = []string{"stderr"}
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		if level := os.Getenv("TIERSTACK_LOG_LEVEL"); level != "" {
			cfg.Level = level
		}
		return logging.NewLogger(cfg)
	}

	// loadTimeouts reads provisioning timeouts from the environment.
	loadTimeouts = config.LoadTimeouts

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// findConfigFile finds the default config file (for testing injection).
	findConfigFile = config.FindConfigFile

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// isTerminal reports whether stdout is an interactive terminal.
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// loadConfig loads and validates the stack configuration. If configPath is
// empty, it looks for tierstack.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, "", fmt.Errorf("no config file found: %w\nRun 'tierctl init' to create one", err)
			}
			return nil, "", err
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, configPath, nil
}

// outputStores returns where the outputs document lives: a file next to
// the config and, when a state bucket is configured, S3.
func outputStores(ctx context.Context, cfg *config.Config, configPath string) (provisioning.Stores, error) {
	stores := provisioning.Stores{
		provisioning.FileStore{Path: filepath.Join(filepath.Dir(configPath), provisioning.DefaultOutputsFile)},
	}
	if cfg.State.Bucket == "" {
		return stores, nil
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create state bucket client: %w", err)
	}
	stores = append(stores, provisioning.BucketStore{
		Client: objects,
		Bucket: cfg.State.Bucket,
		Key:    naming.New(cfg.Project, cfg.Environment, cfg.Abbreviation).OutputsKey(),
		NotFound: func(err error) bool {
			return errors.Is(err, s3.ErrObjectNotFound)
		},
	})
	return stores, nil
}

func printf(format string, a ...any) {
	_, _ = fmt.Fprintf(stdout, format, a...)
}
