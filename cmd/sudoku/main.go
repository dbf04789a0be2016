package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sudokusolver/solveserver"
	"sudokusolver/sudoku"
)

var errExit2 = errors.New("invalid input")

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errExit2) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sudoku",
		Short:         "Solve and validate 9x9 Sudoku puzzles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newSolveCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newServeCommand())
	return root
}

// readGrid loads a puzzle from a file argument, stdin ("-" or no
// argument), or the built-in example.
func readGrid(args []string, useExample bool) (sudoku.Grid, error) {
	if useExample {
		return sudoku.Example(), nil
	}

	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return sudoku.Grid{}, err
	}
	return sudoku.Parse(string(data))
}

func newSolveCommand() *cobra.Command {
	var useExample bool
	var pretty bool

	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Solve a puzzle from a file, stdin, or the built-in example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := readGrid(args, useExample)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return errExit2
			}
			if !sudoku.Validate(&grid) {
				fmt.Fprintln(cmd.ErrOrStderr(), "puzzle has conflicting digits in a row, column, or block")
				return errExit2
			}

			stats, ok := sudoku.SolveWithStats(&grid)
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "no solution exists")
				return errors.New("unsolvable")
			}

			if pretty {
				fmt.Fprint(cmd.OutOrStdout(), grid.PrettyString())
			} else {
				fmt.Fprint(cmd.OutOrStdout(), grid.String())
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "solved in %v (%d nodes, %d backtracks)\n",
				stats.Duration, stats.Nodes, stats.Backtracks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useExample, "example", false, "solve the built-in example puzzle")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render with box-drawing borders")
	return cmd
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a puzzle for conflicting digits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := readGrid(args, false)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return errExit2
			}
			if !sudoku.Validate(&grid) {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid: duplicate digit in a row, column, or block")
				return errors.New("invalid puzzle")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	return cmd
}

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket solve server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; environment beats it either way.
			_ = godotenv.Load()

			logger := logrus.New()
			if lvl, err := logrus.ParseLevel(envOr("SUDOKU_LOG_LEVEL", "info")); err == nil {
				logger.SetLevel(lvl)
			}

			if !cmd.Flags().Changed("addr") {
				addr = envOr("SUDOKU_ADDR", addr)
			}
			workers, _ := strconv.Atoi(envOr("SUDOKU_WORKERS", "0"))

			server := solveserver.New(solveserver.Config{
				Addr:    addr,
				Workers: workers,
				Logger:  logger,
			})
			if err := server.Start(); err != nil {
				return err
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			logger.Info("shutting down")
			return server.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
