// Package config provides configuration management for the NetBox geo sync service.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: fingerprint cache connection details (MySQL or SQLite)
//   - Storage: S3/MinIO credentials and dataset bucket settings
//   - NetBox: remote API URL, token, retry and pagination settings
//   - RateLimit: token bucket budget for remote calls
//   - Sync: batch size, concurrency, delete opt-in and source selection
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.NetBox.URL)
package config
