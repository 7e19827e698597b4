package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzalewski/devclock/internal/client"
	"github.com/mzalewski/devclock/internal/config"
	"github.com/mzalewski/devclock/internal/timer"
	"github.com/mzalewski/devclock/pkg/api"
)

func clientLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// loadClient builds an API client from the cached login.
func loadClient() (*client.Client, *client.Credentials, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	creds, err := client.LoadCredentials(cfg.Client.CredentialsPath)
	if err != nil {
		return nil, nil, err
	}

	serverURL := creds.ServerURL
	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}
	return client.New(serverURL, creds.Username), creds, nil
}

func newLoginCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in as a roster user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = cfg.Client.ServerURL
			}

			c := client.New(serverURL, args[0])
			user, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			creds := &client.Credentials{
				Username:    user.Username,
				Role:        user.Role,
				DisplayName: user.DisplayName,
				ServerURL:   serverURL,
			}
			if err := client.SaveCredentials(cfg.Client.CredentialsPath, creds); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (default from config)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached login",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := client.ClearCredentials(cfg.Client.CredentialsPath); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current login",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, creds, err := loadClient()
			if err != nil {
				return err
			}

			// The roster may have changed roles since login; prefer the
			// server's answer when reachable.
			if user, err := c.CurrentUser(cmd.Context()); err == nil {
				fmt.Printf("%s (%s) @ %s\n", user.Username, user.Role, c.BaseURL())
				return nil
			}
			fmt.Printf("%s (%s) @ %s (cached)\n", creds.Username, creds.Role, c.BaseURL())
			return nil
		},
	}
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List roster users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			users, err := c.AvailableUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tROLE\tNAME")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Role, u.DisplayName)
			}
			return w.Flush()
		},
	}
}

func newListCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with current times",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			projects, err := c.CurrentTimes(cmd.Context())
			if err != nil {
				return err
			}

			projects = client.FilterAndRank(projects, search)
			printProjects(os.Stdout, projects, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter and rank by search term")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live project view, updated every second",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s := client.NewSync(c, clientLogger())
			if err := s.Refresh(ctx); err != nil {
				return err
			}
			go func() { _ = s.Run(ctx) }()

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					fmt.Print("\033[H\033[2J")
					if !s.Connected() {
						fmt.Println("(offline: polling)")
					}
					printProjects(os.Stdout, s.Projects(), time.Now())
				}
			}
		},
	}
}

func newCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			p, err := c.CreateProject(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			if err := c.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted")
			return nil
		},
	}
}

func newStartDevCmd() *cobra.Command {
	return timerCmd("start-dev [id]", "Toggle the development timer",
		func(ctx context.Context, c *client.Client, id string) (*api.ProjectResponse, error) {
			return c.ToggleDev(ctx, id)
		})
}

func newStartWaitCmd() *cobra.Command {
	return timerCmd("start-wait [id]", "Toggle the customer wait timer",
		func(ctx context.Context, c *client.Client, id string) (*api.ProjectResponse, error) {
			return c.ToggleWait(ctx, id)
		})
}

func newStopCmd() *cobra.Command {
	return timerCmd("stop [id]", "Stop all timers on a project",
		func(ctx context.Context, c *client.Client, id string) (*api.ProjectResponse, error) {
			return c.StopTimers(ctx, id)
		})
}

func timerCmd(use, short string, action func(context.Context, *client.Client, string) (*api.ProjectResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			p, err := action(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", p.Name, p.CurrentState)
			return nil
		},
	}
}

func newAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign [id] [username]",
		Short: "Assign a project to one user (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			p, err := c.AssignProject(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s assigned to %s\n", p.Name, p.AssignedUserUsername)
			return nil
		},
	}
}

func newAssignAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-all [id]",
		Short: "Assign a project to everyone (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			p, err := c.AssignProjectToAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s assigned to all users\n", p.Name)
			return nil
		},
	}
}

func newUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign [id]",
		Short: "Remove a project's assignment (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			p, err := c.UnassignProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s unassigned\n", p.Name)
			return nil
		},
	}
}

func newTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline [id]",
		Short: "Show a project's event history (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadClient()
			if err != nil {
				return err
			}
			entries, err := c.Timeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tDURATION\tUSER\tDESCRIPTION")
			for _, e := range entries {
				duration := ""
				if e.DurationSeconds > 0 {
					duration = timer.FormatSeconds(e.DurationSeconds)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format(time.RFC3339), e.EventType, duration, e.Username, e.Description)
			}
			return w.Flush()
		},
	}
}

func printProjects(out io.Writer, projects []api.ProjectResponse, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tDEV\tWAIT\tASSIGNED")
	for _, p := range projects {
		proj := timer.FromResponse(p, now)
		assigned := p.AssignedUserUsername
		if p.AssignedToAll {
			assigned = "everyone"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(p.ID), p.Name, p.CurrentState,
			timer.FormatSeconds(proj.DevTime), timer.FormatSeconds(proj.WaitTime), assigned)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
