package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/wpphist/internal/client"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/matheus3301/wpphist/internal/session"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				resp, err := c.Session.GetSessionStatus(ctx, &wppv1.GetSessionStatusRequest{})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, resp)
				}
				fmt.Fprintf(out, "Session:  %s\n", resp.Session)
				fmt.Fprintf(out, "Status:   %s (since %s)\n", resp.Status, time.UnixMilli(resp.StatusSinceMs).Format(time.RFC3339))
				if !resp.Synced {
					fmt.Fprintln(out, "          history may lag the phone until the session is synced")
				}
				if resp.PhoneNumber != "" {
					fmt.Fprintf(out, "Phone:    %s\n", resp.PhoneNumber)
				}
				fmt.Fprintf(out, "Uptime:   %s\n", (time.Duration(resp.UptimeMs) * time.Millisecond).Round(time.Second))
				fmt.Fprintf(out, "Chats:    %d\n", resp.ChatCount)
				fmt.Fprintf(out, "Messages: %d\n", resp.MessageCount)
				fmt.Fprintf(out, "Rows:     %d (indexed through message %d)\n", resp.LastRowID, resp.IndexedID)
				if resp.DroppedEvents > 0 {
					fmt.Fprintf(out, "Dropped:  %d events\n", resp.DroppedEvents)
				}
				return nil
			})
		},
	}
}

func newAuthCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Pair the session by scanning a QR code",
		Long:  "Streams pairing codes from the daemon and renders each as a terminal QR code until pairing completes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			// Pairing waits on a human; the global deadline does not apply.
			stream, err := c.Session.StartAuth(cmd.Context(), &wppv1.StartAuthRequest{})
			if err != nil {
				return err
			}
			return renderAuth(cmd.OutOrStdout(), stream.Recv)
		},
	}
}

func renderAuth(out io.Writer, recv func() (*wppv1.AuthEvent, error)) error {
	for {
		evt, err := recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch evt.EventType {
		case "qr_code":
			qr, err := qrcode.New(evt.QrCode, qrcode.Medium)
			if err != nil {
				return fmt.Errorf("render qr: %w", err)
			}
			fmt.Fprintln(out, qr.ToSmallString(false))
			fmt.Fprintln(out, "Scan with WhatsApp > Linked devices.")
		case "authenticated":
			fmt.Fprintln(out, "Paired.")
			return nil
		case "auth_failed", "timeout":
			return fmt.Errorf("pairing failed: %s", evt.Message)
		default:
			msg := evt.Message
			if msg == "" {
				msg = evt.EventType
			}
			fmt.Fprintln(out, msg)
		}
	}
}

func newLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Unlink the session from the phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				resp, err := c.Session.Logout(ctx, &wppv1.LogoutRequest{})
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newSessionsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List known sessions and whether their daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := session.List()
			if err != nil {
				return err
			}
			type entry struct {
				Name    string `json:"name"`
				Running bool   `json:"running"`
			}
			entries := make([]entry, 0, len(names))
			for _, n := range names {
				entries = append(entries, entry{Name: n, Running: session.Running(n)})
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, entries)
			}
			for _, e := range entries {
				state := "stopped"
				if e.Running {
					state = "running"
				}
				fmt.Fprintf(out, "%-20s %s\n", e.Name, state)
			}
			return nil
		},
	}
}
