package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	apiURL   string
	apiToken string
	verbose  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "courier-cli",
	Short: "Courier CLI - login and message sending against a running Courier instance",
	Long: `Courier CLI provides command-line access to the Courier messaging service.
Log in to obtain a session token, then send test emails and SMS messages.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
		if verbose {
			fmt.Printf("API URL: %s\n", apiURL)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.courier-cli.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Courier API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "session token from a previous login")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api_token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(sendEmailCmd)
	rootCmd.AddCommand(sendSMSCmd)
	rootCmd.AddCommand(healthCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".courier-cli")
	}

	viper.SetEnvPrefix("COURIER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Printf("Using config file: %s\n", viper.ConfigFileUsed())
	}

	if apiURL == "" {
		apiURL = viper.GetString("api_url")
	}
	if apiToken == "" {
		apiToken = viper.GetString("api_token")
	}
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
}

var (
	loginPartner string
	loginAPIKey  string
)

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Log in and print a session token",
	Long:  "Authenticate with partner mode (--partner) or API-key mode (--api-key) and print the issued token.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &CourierClient{BaseURL: apiURL}
		return client.Login(args[0], args[1], loginPartner, loginAPIKey)
	},
}

var (
	emailBusinessGroup string
	emailSubject       string
)

var sendEmailCmd = &cobra.Command{
	Use:   "send-email [to] [body]",
	Short: "Send a test email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &CourierClient{BaseURL: apiURL, Token: apiToken}
		return client.SendEmail(emailBusinessGroup, args[0], emailSubject, args[1])
	},
}

var smsBusinessGroup string

var sendSMSCmd = &cobra.Command{
	Use:   "send-sms [to] [body]",
	Short: "Send a test SMS",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &CourierClient{BaseURL: apiURL, Token: apiToken}
		return client.SendSMS(smsBusinessGroup, args[0], args[1])
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &CourierClient{BaseURL: apiURL}
		return client.Health()
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginPartner, "partner", "", "partner email (partner-verification mode)")
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "messaging API key (API-key mode)")

	sendEmailCmd.Flags().StringVar(&emailBusinessGroup, "business-group", "CLI", "business group label")
	sendEmailCmd.Flags().StringVar(&emailSubject, "subject", "Test message", "email subject")

	sendSMSCmd.Flags().StringVar(&smsBusinessGroup, "business-group", "CLI", "business group label")
}
