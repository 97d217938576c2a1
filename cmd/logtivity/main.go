// Command logtivity is a terminal front end for the workout API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rwaynewhite15/logtivity/internal/client"
	"github.com/rwaynewhite15/logtivity/internal/config"
)

type app struct {
	session  *client.Session
	prompter *terminalPrompter
	render   renderer
	out      io.Writer
}

func (a *app) show() {
	a.render.workouts(a.session.State(), a.session.Workouts(), a.session.Summary())
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
		verbose bool
		a       = &app{out: out}
	)

	root := &cobra.Command{
		Use:           "logtivity",
		Short:         "Log your personal best activity",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = config.Load().APIURL
			}
			logOut := io.Discard
			if verbose {
				logOut = errOut
			}
			a.prompter = newTerminalPrompter(in, out, errOut)
			a.render = renderer{out: out, loc: time.Local}
			a.session = client.NewSession(
				client.New(client.Config{BaseURL: apiURL, Timeout: timeout}),
				a.prompter,
				client.WithLogger(log.New(logOut, "[logtivity] ", log.LstdFlags)),
			)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "workout API base URL (default $LOGTIVITY_API_URL or http://localhost:5000/api)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 waits for the server)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log request failures to stderr")

	root.AddCommand(newListCmd(a), newAddCmd(a), newDeleteCmd(a), newShellCmd(a))
	return root
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every workout, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.LoadAll(cmd.Context())
			a.show()
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var form client.Form
	cmd := &cobra.Command{
		Use:   "add <exercise>",
		Short: "Log a workout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Exercise = strings.Join(args, " ")
			a.session.SetForm(form)
			saved, err := a.session.Submit(cmd.Context())
			if err != nil {
				return err
			}
			a.render.workout(saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Sets, "sets", "", "number of sets")
	cmd.Flags().StringVar(&form.Reps, "reps", "", "number of reps")
	cmd.Flags().StringVar(&form.Weight, "weight", "", "weight in lbs")
	cmd.Flags().StringVar(&form.Duration, "duration", "", "duration in minutes")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.prompter.assumeYes = yes
			removed, err := a.session.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(a.out, "Workout deleted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), a)
		},
	}
}

const shellHelp = `commands:
  list            show workouts
  add             log a workout
  delete <id>     delete a workout
  quit            leave`

func runShell(ctx context.Context, a *app) error {
	a.session.LoadAll(ctx)
	a.show()

	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.prompter.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list", "ls":
			a.show()
		case "add":
			a.session.SetForm(askForm(a))
			if _, err := a.session.Submit(ctx); errors.Is(err, client.ErrEmptyExercise) {
				fmt.Fprintln(a.out, "Exercise is required.")
				continue
			}
			a.show()
		case "delete", "rm":
			if len(fields) < 2 {
				fmt.Fprintln(a.out, "usage: delete <id>")
				continue
			}
			if removed, _ := a.session.Remove(ctx, fields[1]); removed {
				a.show()
			}
		case "help", "?":
			fmt.Fprintln(a.out, shellHelp)
		case "quit", "exit", "q":
			return nil
		default:
			fmt.Fprintf(a.out, "unknown command %q\n%s\n", fields[0], shellHelp)
		}
	}
}

func askForm(a *app) client.Form {
	ask := func(label string) string {
		fmt.Fprintf(a.out, "%s: ", label)
		line, _ := a.prompter.in.ReadString('\n')
		return strings.TrimRight(line, "\r\n")
	}
	return client.Form{
		Exercise: ask("Exercise (e.g., Push-ups)"),
		Sets:     ask("Sets"),
		Reps:     ask("Reps"),
		Weight:   ask("Weight (lbs)"),
		Duration: ask("Duration (mins)"),
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logtivity: %v\n", err)
		os.Exit(1)
	}
}
