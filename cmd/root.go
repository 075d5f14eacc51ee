package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meridianhq/meridian-go/chanpool"
	"github.com/meridianhq/meridian-go/logging"
	"github.com/meridianhq/meridian-go/transport"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "A CLI to interact with the Meridian platform APIs",
	Long:  `The meridian CLI gives direct access to the Meridian audit-log and warehouse services.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Bind these to viper
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `root` flags")
		}

		logging.ConfigureLevel(log.StandardLogger(), viper.GetString("log"))
		if viper.GetBool("json-logs") {
			logging.ConfigureJSON(log.StandardLogger())
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newPool builds a channel pool with credentials for the given scope list,
// read from flags and the environment.
func newPool(ctx context.Context, scopes []string) *chanpool.Pool {
	opts := transport.DialOptions{
		Insecure: viper.GetBool("insecure"),
	}

	if clientID := viper.GetString("client-id"); clientID != "" {
		creds := transport.ClientCredentials{
			ClientID:     clientID,
			ClientSecret: viper.GetString("client-secret"),
			TokenURL:     viper.GetString("token-url"),
		}
		opts.TokenSource = creds.TokenSource(ctx, scopes...)
	}

	return chanpool.NewDefault(opts)
}

// shutdownPool tears the pool down at the end of a command, complaining
// rather than failing if a channel refuses to close.
func shutdownPool(pool *chanpool.Pool) {
	if err := pool.ShutdownAll(); err != nil {
		log.WithError(err).Warn("error shutting down channel pool")
	}
}

func init() {
	rootCmd.PersistentFlags().String("log", "info", "Set the log level. Valid values: panic, fatal, error, warn, info, debug, trace")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON with a severity field")
	rootCmd.PersistentFlags().String("client-id", "", "OAuth client ID used to authenticate to the Meridian APIs")
	rootCmd.PersistentFlags().String("client-secret", "", "OAuth client secret")
	rootCmd.PersistentFlags().String("token-url", "https://auth.meridianapis.dev/oauth/token", "OAuth token endpoint")
	rootCmd.PersistentFlags().Bool("insecure", false, "Disable TLS. Local development only")

	viper.SetEnvPrefix("MERIDIAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
