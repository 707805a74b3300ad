package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"cloudcanvas/app/config"
	"cloudcanvas/app/log"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/viewmodels"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X cloudcanvas/service.Version=...".
var Version = "dev"

type cli struct {
	opts *config.Options
	log  *zap.Logger
	yes  bool
}

// NewRootCmd builds the cloudcanvas command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{opts: config.DefaultOptions(), log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "cloudcanvas",
		Short:         "Cloud Canvas, share and browse photos of cloud formations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.log.Sync()
		},
	}
	c.opts.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		c.newServeCmd(),
		c.newInitCmd(),
		c.newCleanCmd(),
		c.newBackupCmd(),
		c.newRestoreCmd(),
		c.newSeedCmd(),
		c.newImportCmd(),
		c.newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the config file and environment into the flags, then builds the
// logger at the configured level.
func (c *cli) setup(cmd *cobra.Command) error {
	logger, err := log.New("")
	if err != nil {
		return err
	}
	if err := config.Load(cmd.Flags(), logger); err != nil {
		return err
	}
	if err := log.SetLevel(c.opts.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.opts.LogLevel, err)
	}
	if err := c.opts.Validate(); err != nil {
		return err
	}
	c.log = logger
	return nil
}

func (c *cli) confirmer(cmd *cobra.Command) viewmodels.Confirmer {
	if c.yes {
		return viewmodels.Always
	}
	return PromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
}

// withStore opens the configured store for the duration of fn.
func (c *cli) withStore(ctx context.Context, fn func(context.Context, repositories.Store) error) error {
	store, err := OpenStore(ctx, c.opts, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.log.Warn("failed to close store", zap.Error(err))
		}
	}()
	return fn(ctx, store)
}

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the web application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return Run(ctx, c.opts, c.log)
		},
	}
}

func (c *cli) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "initialize a new empty local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := InitStore(LocalPath(c.opts)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
			return nil
		},
	}
}

func (c *cli) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "remove the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			removed, err := CleanStore(LocalPath(c.opts), c.confirmer(cmd))
			switch {
			case errors.Is(err, viewmodels.ErrCancelled):
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			case err != nil:
				return err
			case !removed:
				fmt.Fprintln(out, "Database is already clean (does not exist)")
			default:
				fmt.Fprintln(out, "Database cleaned successfully")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&c.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "write a backup of the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := BackupStore(LocalPath(c.opts), BackupDir(c.opts), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", file)
			return nil
		},
	}
}

func (c *cli) newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "restore the local database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := RestoreStore(LocalPath(c.opts), args[0], c.confirmer(cmd))
			if errors.Is(err, viewmodels.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&c.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "insert the demo posts into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s repositories.Store) error {
				n, err := SeedStore(ctx, s, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d posts\n", n)
				return nil
			})
		},
	}
}

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "load an export of the browser storage into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s repositories.Store) error {
				n, err := ImportFile(ctx, s, args[0], c.log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts\n", n)
				return nil
			})
		},
	}
}

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := c.opts.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cloudcanvas version %s (%s)\n", Version, runtime.Version())
			return nil
		},
	}
}
