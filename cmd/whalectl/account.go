package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	accountCmd := &cobra.Command{Use: "account", Short: "Docker account operations"}

	var dockerUsername, accessToken string
	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a Docker Hub account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			resp, err := client().R().
				SetBody(map[string]string{
					"docker_username": dockerUsername,
					"access_token":    accessToken,
				}).
				Post("/api/docker/connect")
			return printResponse(resp, err)
		},
	}
	connectCmd.Flags().StringVarP(&dockerUsername, "docker-username", "d", "", "Docker Hub username (required)")
	connectCmd.Flags().StringVarP(&accessToken, "token", "t", "", "Docker Hub personal access token (required)")
	_ = connectCmd.MarkFlagRequired("docker-username")
	_ = connectCmd.MarkFlagRequired("token")
	accountCmd.AddCommand(connectCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the connected account and its sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			resp, err := client().R().Get("/api/docker/account")
			return printResponse(resp, err)
		},
	}
	accountCmd.AddCommand(statusCmd)

	disconnectCmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the account and delete its activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			resp, err := client().R().Delete("/api/docker/account")
			return printResponse(resp, err)
		},
	}
	accountCmd.AddCommand(disconnectCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger an on-demand sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			resp, err := client().R().Post("/api/docker/sync")
			return printResponse(resp, err)
		},
	}
	accountCmd.AddCommand(syncCmd)

	rootCmd.AddCommand(accountCmd)
}
