package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	sigilchat "github.com/sigilchat/client-go"
	"github.com/sigilchat/client-go/internal/crypto"
)

type chatFunc func(ctx context.Context, c *sigilchat.Client, members []sigilchat.Participant) error

func (a *app) chatCmd() *cobra.Command {
	var memberIDs []string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Resolve chat session keys and seal or open messages",
	}
	cmd.PersistentFlags().StringSliceVarP(&memberIDs, "members", "m", nil, "participant user ids (comma separated)")

	runChat := func(cmd *cobra.Command, fn chatFunc) error {
		return a.withClient(cmd.Context(), func(ctx context.Context, c *sigilchat.Client) error {
			members, err := a.participants(ctx, c, memberIDs)
			if err != nil {
				return err
			}
			return fn(ctx, c, members)
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <chat-id>",
		Short: "Resolve the session key of a chat and report its source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, func(ctx context.Context, c *sigilchat.Client, members []sigilchat.Participant) error {
				res, err := c.ChatKey(ctx, args[0], members)
				if err != nil {
					return err
				}
				return printResolution(cmd.OutOrStdout(), res)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate <chat-id>",
		Short: "Replace the session key of a chat and distribute the new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, func(ctx context.Context, c *sigilchat.Client, members []sigilchat.Participant) error {
				res, err := c.Rotate(ctx, args[0], members)
				if err != nil {
					return err
				}
				return printResolution(cmd.OutOrStdout(), res)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt <chat-id> <text>",
		Short: "Seal a message under the chat session key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, func(ctx context.Context, c *sigilchat.Client, members []sigilchat.Participant) error {
				env, err := c.EncryptMessage(ctx, args[0], members, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), env)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decrypt <chat-id> <envelope>",
		Short: "Open a message sealed under the chat session key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, func(ctx context.Context, c *sigilchat.Client, members []sigilchat.Participant) error {
				msg := c.OpenMessage(ctx, args[0], members, args[1])
				fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
				if msg.Unreadable {
					a.logger.WithError(msg.Err).Warn("message could not be decrypted")
				}
				return nil
			})
		},
	})

	return cmd
}

func printResolution(w io.Writer, res *sigilchat.Resolution) error {
	sum, err := crypto.Digest(crypto.SHA256, res.Key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "source:      %s\n", res.Source)
	fmt.Fprintf(w, "fingerprint: %s\n", crypto.ToHex(sum[:8]))
	if res.Source == sigilchat.SourceFallback {
		fmt.Fprintln(w, "warning:     fallback key is derived from public ids and is not confidential")
	}
	if d := res.Distribution; d != nil {
		fmt.Fprintf(w, "distributed: %v\n", d.Succeeded)
		if len(d.Skipped) > 0 {
			fmt.Fprintf(w, "skipped:     %v (no public key)\n", d.Skipped)
		}
		for _, f := range d.Failed {
			fmt.Fprintf(w, "failed:      %s: %v\n", f.UserID, f.Err)
		}
	}
	return nil
}
