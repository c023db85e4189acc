// whalectl is the operator CLI for the whalemap REST API.
package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	userFlag string
	rootCmd  = &cobra.Command{
		Use:   "whalectl",
		Short: "CLI client for the whalemap REST API",
	}
)

func client() *resty.Client {
	c := resty.New().SetBaseURL(apiFlag)
	if userFlag != "" {
		c.SetHeader("X-User-ID", userFlag)
	}
	return c
}

// printResponse writes the raw body and surfaces non-2xx as an error.
func printResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(resp.Body()))
	if resp.IsError() {
		return fmt.Errorf("request failed with status %d", resp.StatusCode())
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "whalemap service base URL")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Local user ID")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
