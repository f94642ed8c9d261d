package cmd

import (
	"fmt"
	"log"

	"netbox-geo/core/config"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the resolved configuration with secrets redacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		fmt.Println("server:")
		fmt.Printf("  port: %s\n", cfg.Server.Port)
		fmt.Printf("  api_key: %s\n", redact(cfg.Server.ApiKey))
		fmt.Println("log:")
		fmt.Printf("  level: %s\n", cfg.Log.Level)
		fmt.Printf("  format: %s\n", cfg.Log.Format)
		fmt.Println("database:")
		fmt.Printf("  driver: %s\n", cfg.Database.Driver)
		fmt.Printf("  host: %s\n", cfg.Database.Host)
		fmt.Printf("  name: %s\n", cfg.Database.Name)
		fmt.Printf("  username: %s\n", cfg.Database.User)
		fmt.Printf("  password: %s\n", redact(cfg.Database.Password))
		fmt.Println("storage:")
		fmt.Printf("  endpoint: %s\n", cfg.Storage.Endpoint)
		fmt.Printf("  bucket: %s\n", cfg.Storage.Bucket)
		fmt.Printf("  access_key: %s\n", redact(cfg.Storage.AccessKey))
		fmt.Printf("  secret_key: %s\n", redact(cfg.Storage.SecretKey))
		fmt.Println("netbox:")
		fmt.Printf("  url: %s\n", cfg.NetBox.URL)
		fmt.Printf("  token: %s\n", redact(cfg.NetBox.Token))
		fmt.Printf("  verify_ssl: %t\n", cfg.NetBox.VerifySSL)
		fmt.Printf("  timeout_seconds: %d\n", cfg.NetBox.TimeoutSeconds)
		fmt.Printf("  max_retries: %d\n", cfg.NetBox.MaxRetries)
		fmt.Printf("  page_size: %d\n", cfg.NetBox.PageSize)
		fmt.Println("ratelimit:")
		fmt.Printf("  calls_per_minute: %d\n", cfg.RateLimit.CallsPerMinute)
		fmt.Printf("  burst: %d\n", cfg.RateLimit.Burst)
		fmt.Println("sync:")
		fmt.Printf("  sources: %s\n", cfg.Sync.Sources)
		fmt.Printf("  batch_size: %d\n", cfg.Sync.BatchSize)
		fmt.Printf("  concurrency: %d\n", cfg.Sync.Concurrency)
		fmt.Printf("  allow_delete: %t\n", cfg.Sync.AllowDelete)
		fmt.Printf("  min_city_population: %d\n", cfg.Sync.MinCityPopulation)
		fmt.Printf("  dataset_prefix: %s\n", cfg.Sync.DatasetPrefix)
	},
}

func redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "********"
}

func init() {
	RootCmd.AddCommand(configCmd)
}
