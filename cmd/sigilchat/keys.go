package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	sigilchat "github.com/sigilchat/client-go"
)

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the session keypair",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the session public key",
		Long: "Print the session public key. The keypair lives only as long as the\n" +
			"process, so every invocation prints a new key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c *sigilchat.Client) error {
				pem, err := c.PublicKeyPEM(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pem)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "publish",
		Short: "Generate a session keypair and publish its public half",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c *sigilchat.Client) error {
				if err := c.PublishPublicKey(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "public key published")
				return nil
			})
		},
	})
	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the user directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c *sigilchat.Client) error {
				users, err := c.Users(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPUBLIC KEY")
				for _, u := range users {
					published := "no"
					if u.PublicKeyPEM != "" {
						published = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, published)
				}
				return tw.Flush()
			})
		},
	}
}
