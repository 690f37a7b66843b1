package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmstudyabroad/counselor-bot/internal/app"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
)

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <text...>",
		Short: "Print the reply the bot would send for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			kb, err := app.LoadKnowledge(ctx, cfg, nil)
			if err != nil {
				return err
			}
			gen := app.NewGenerator(ctx, cfg)
			if gen != nil {
				defer func() { _ = gen.Close() }()
			}

			reply := app.NewCounselor(cfg, kb, gen, nil).Reply(ctx, strings.Join(args, " "))
			printf(cmd.OutOrStdout(), "%s\n", reply.Text)
			if c.verbose {
				printf(cmd.ErrOrStderr(), "source=%s entry=%q score=%g\n", reply.Source, reply.EntryID, reply.Score)
			}
			return nil
		},
	}
}

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <psid> <text...>",
		Short: "Send a text message to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.messengerClient()
			if err != nil {
				return err
			}
			ids, err := client.SendText(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Message sent successfully. Message ID: %s\n", strings.Join(ids, ", "))
			return nil
		},
	}
}

func (c *cli) typingCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "typing <psid> <typing_on|typing_off|mark_seen>",
		Short:     "Send a sender action to a user",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(messenger.ActionTypingOn), string(messenger.ActionTypingOff), string(messenger.ActionMarkSeen)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := messenger.ParseAction(args[1])
			if err != nil {
				return err
			}
			client, err := c.messengerClient()
			if err != nil {
				return err
			}
			if err := client.SendAction(cmd.Context(), args[0], action); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Typing indicator '%s' sent successfully\n", action)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <psid>",
		Short: "Print a user's Messenger profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.messengerClient()
			if err != nil {
				return err
			}
			p, err := client.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

func (c *cli) messengerClient() (*messenger.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return app.NewMessengerClient(cfg, nil, nil), nil
}
