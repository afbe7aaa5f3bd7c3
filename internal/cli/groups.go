package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alderacgit/ZenDeskExport/internal/config"
	"github.com/alderacgit/ZenDeskExport/pkg/zendesk"
)

// groupsCommand creates the "groups" subcommand.
func (c *CLI) groupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups on the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			client := zendesk.NewClient(cfg.Subdomain, cfg.Email, cfg.APIToken)
			if _, err := client.Me(cmd.Context()); err != nil {
				return err
			}
			return c.printGroups(cmd.Context(), client)
		},
	}
}

// printGroups fetches and prints the account's groups as an id/name table.
func (c *CLI) printGroups(ctx context.Context, api zendesk.API) error {
	groups, err := api.Groups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		printInfo("No groups found on the account")
		return nil
	}

	printNewline()
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Groups (%d)", len(groups))))
	for _, g := range groups {
		printKeyValue(fmt.Sprintf("%d", g.ID), g.Name)
	}
	return nil
}
