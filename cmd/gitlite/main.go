package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gitlite/internal/fsys"
	"gitlite/internal/gliterr"
	"gitlite/internal/logging"
	"gitlite/internal/repo"
	"gitlite/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:           "gitlite",
	Short:         "Gitlite is a miniature version-control system",
	Long:          `Gitlite tracks the history of a directory as a content-addressed object store with branches, a staging area, and local remotes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// openRepo opens the repository rooted at the current directory and attaches
// a configured logger tagged with this invocation's operation id.
func openRepo() (*repo.Repository, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	r, err := repo.Open(fsys.NewOS("/"), dir)
	if err != nil {
		return nil, err
	}

	switch r.Config.Color {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}

	logger, err := logging.NewLogger(r.Config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	r.SetLogger(logger.WithOperationID(uuid.New().String()))
	return r, nil
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Gitlite repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			if _, err := repo.Init(fsys.NewOS("/"), dir); err != nil {
				return err
			}
			fmt.Println("Initialized empty Gitlite repository in", dir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add [file]",
		Short: "Stage a file for the next commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Add(args[0])
		},
	}

	var commitMessage string
	var commitCmd = &cobra.Command{
		Use:   "commit [message]",
		Short: "Record the staged changes as a new commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			message := commitMessage
			if len(args) == 1 {
				message = args[0]
			}
			_, err = r.Commit(message)
			return err
		},
	}
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")

	var rmCmd = &cobra.Command{
		Use:   "rm [file]",
		Short: "Unstage a file, or mark a tracked file for removal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Rm(args[0])
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the current branch's history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Log()
		},
	}

	var globalLogCmd = &cobra.Command{
		Use:   "global-log",
		Short: "Show every commit ever made",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.GlobalLog()
		},
	}

	var findCmd = &cobra.Command{
		Use:   "find [message]",
		Short: "Print the ids of commits with the given message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Find(args[0])
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show branches, staged and removed files, and local changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Status()
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout [branch] | -- [file] | [commit id] -- [file]",
		Short: "Restore a branch, or a file from a commit",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			dash := cmd.ArgsLenAtDash()
			switch {
			case dash == 0 && len(args) == 1:
				return r.CheckoutFile(args[0])
			case dash == 1 && len(args) == 2:
				return r.CheckoutFileAt(args[0], args[1])
			case dash < 0 && len(args) == 1:
				return r.CheckoutBranch(args[0])
			default:
				return fmt.Errorf("incorrect operands")
			}
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch [name]",
		Short: "Create a branch at the current commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Branch(args[0])
		},
	}

	var rmBranchCmd = &cobra.Command{
		Use:   "rm-branch [name]",
		Short: "Delete a branch pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.RmBranch(args[0])
		},
	}

	var resetCmd = &cobra.Command{
		Use:   "reset [commit id]",
		Short: "Move the current branch to a commit and restore its tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Reset(args[0])
		},
	}

	var mergeCmd = &cobra.Command{
		Use:   "merge [branch]",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Merge(args[0])
		},
	}

	var remoteAddCmd = &cobra.Command{
		Use:   "remote-add [name] [path]",
		Short: "Register a remote repository path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.RemoteAdd(args[0], strings.ReplaceAll(args[1], "\\", "/"))
		},
	}

	var remoteRmCmd = &cobra.Command{
		Use:   "remote-rm [name]",
		Short: "Unregister a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.RemoteRm(args[0])
		},
	}

	var pushCmd = &cobra.Command{
		Use:   "push [remote] [branch]",
		Short: "Publish the current branch to a remote branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Push(args[0], args[1])
		},
	}

	var fetchCmd = &cobra.Command{
		Use:   "fetch [remote] [branch]",
		Short: "Copy a remote branch's history into this repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Fetch(args[0], args[1])
		},
	}

	var pullCmd = &cobra.Command{
		Use:   "pull [remote] [branch]",
		Short: "Fetch a remote branch and merge it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Pull(args[0], args[1])
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-render status as the working tree changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			logger, err := logging.NewLogger(r.Config.LogLevel)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}

			header := color.New(color.FgCyan)
			w, err := watch.New(dir, func() error {
				header.Println("--- gitlite status ---")
				return r.Status()
			}, logger)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		initCmd, addCmd, commitCmd, rmCmd,
		logCmd, globalLogCmd, findCmd, statusCmd,
		checkoutCmd, branchCmd, rmBranchCmd, resetCmd, mergeCmd,
		remoteAddCmd, remoteRmCmd, pushCmd, fetchCmd, pullCmd,
		watchCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stdout, gliterr.UserMessage(err))
		os.Exit(1)
	}
}
