package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/wpphist/internal/client"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/spf13/cobra"
)

func newChatCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Resolve chats",
	}

	findCmd := &cobra.Command{
		Use:   "find <address>",
		Short: "Find or create the chat for a phone number or JID",
		Example: `  wppctl chat find 5511999990000
  wppctl chat find 120363000000000001@g.us`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				resp, err := c.History.FindOrCreateChat(ctx, &wppv1.FindOrCreateChatRequest{Address: args[0]})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, resp.Chat)
				}
				chat := resp.Chat
				fmt.Fprintf(out, "%s  %s\n", chat.ID, chat.Name)
				if g := chat.Group; g != nil {
					fmt.Fprintf(out, "  subject: %s (%d participants)\n", g.Subject, len(g.Participants))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(findCmd)
	return cmd
}

func newMessagesCommand(opts *globalOptions) *cobra.Command {
	var count int32

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Page through a chat around a message",
	}

	newDirCmd := func(direction string) *cobra.Command {
		return &cobra.Command{
			Use:     direction + " <message-key>",
			Short:   fmt.Sprintf("List up to --count messages %s the anchor", direction),
			Example: fmt.Sprintf("  wppctl messages %s false_5511999990000@s.whatsapp.net_3EB0 --count 50", direction),
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
					resp, err := c.History.PageMessages(ctx, &wppv1.PageMessagesRequest{
						Anchor:    args[0],
						Count:     count,
						Direction: direction,
					})
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					if opts.json {
						return writeJSON(out, resp)
					}
					if resp.Status == 404 {
						return fmt.Errorf("anchor %s not found", args[0])
					}
					writeMessages(out, resp.Messages)
					return nil
				})
			},
		}
	}

	cmd.PersistentFlags().Int32Var(&count, "count", 50, "maximum messages to return")
	cmd.AddCommand(newDirCmd("before"), newDirCmd("after"))
	return cmd
}

func newSearchCommand(opts *globalOptions) *cobra.Command {
	var req wppv1.SearchMessagesRequest

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Full-text search across messages",
		Example: `  wppctl search invoice
  wppctl search invoice --remote 5511999990000 --page 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Term = args[0]
			return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				resp, err := c.History.SearchMessages(ctx, &req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, resp)
				}
				if resp.Canceled {
					fmt.Fprintln(out, "search superseded by a newer query")
					return nil
				}
				writeMessages(out, resp.Messages)
				if !resp.EOF {
					fmt.Fprintf(out, "more results: --page %d\n", req.Page+1)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int32Var(&req.Count, "count", 0, "results per page (0 = daemon default)")
	cmd.Flags().Int32Var(&req.Page, "page", 0, "zero-based page number")
	cmd.Flags().StringVar(&req.Remote, "remote", "", "restrict to one chat")
	cmd.Flags().StringVar(&req.Anchor, "anchor", "", "only messages older than this message key")
	return cmd
}

func newScanCommand(opts *globalOptions) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "scan <min-row-id> [limit]",
		Short: "Read messages in row order after a row id",
		Long:  "Reads messages whose row id is strictly greater than min-row-id. A limit of -1 reads to the end.",
		Example: `  wppctl scan 0 100
  wppctl scan 4200 -1 --stream`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &wppv1.ScanMessagesRequest{MinRowID: args[0]}
			if len(args) == 2 {
				req.Limit = args[1]
			}
			return opts.run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				out := cmd.OutOrStdout()
				if stream {
					return streamScan(ctx, c, req, out, opts.json)
				}
				resp, err := c.History.ScanMessagesFromRow(ctx, req)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(out, resp)
				}
				writeMessages(out, resp.Messages)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "stream rows as they are read instead of one reply")
	return cmd
}

func streamScan(ctx context.Context, c *client.Client, req *wppv1.ScanMessagesRequest, out io.Writer, asJSON bool) error {
	s, err := c.History.StreamMessagesFromRow(ctx, req)
	if err != nil {
		return err
	}
	for {
		m, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if asJSON {
			if err := writeJSON(out, m); err != nil {
				return err
			}
			continue
		}
		writeMessage(out, m)
	}
}
