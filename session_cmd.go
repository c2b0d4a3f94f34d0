package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/life4today/life4today/session"
)

// newSessionCmd inspects or manages the locally cached player session.
func newSessionCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "session",
		Short:         "Show the locally cached game session",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := session.NewStore(session.NewFileStore(nil, cfg.sessionDir))

			s, err := store.Load()
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session.")
				return nil
			}

			info := store.SessionInfo()

			fmt.Fprintf(cmd.OutOrStdout(), "Game:      %s\n", s.GameID)
			fmt.Fprintf(cmd.OutOrStdout(), "Player:    %s (%s)\n", s.PlayerName, s.PlayerID)
			fmt.Fprintf(cmd.OutOrStdout(), "Topics:    %v\n", s.Topics)
			fmt.Fprintf(cmd.OutOrStdout(), "Locked:    %v\n", s.LockedTopics)
			fmt.Fprintf(cmd.OutOrStdout(), "Expires:   %s\n", session.FormatTimeRemaining(info.TimeRemaining))
			fmt.Fprintf(cmd.OutOrStdout(), "Renewals:  %d left\n", info.RenewalsLeft)

			return nil
		},
	}

	renew := &cobra.Command{
		Use:           "renew",
		Short:         "Extend the cached session by one more duration",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := session.NewStore(session.NewFileStore(nil, cfg.sessionDir))

			ok, err := store.Renew()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No session to renew, or renewals exhausted.")
				return nil
			}

			info := store.SessionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "Renewed; %s remaining.\n", session.FormatTimeRemaining(info.TimeRemaining))

			return nil
		},
	}

	clear := &cobra.Command{
		Use:           "clear",
		Short:         "Remove the cached session",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := session.NewStore(session.NewFileStore(nil, cfg.sessionDir))

			return store.Clear()
		},
	}

	cmd.AddCommand(renew, clear)

	return cmd
}
