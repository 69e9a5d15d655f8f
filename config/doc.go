// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment using viper and godotenv.
//
// Files are searched in the conventional locations relative to the working
// directory (cmd/<service>/config.yml first). Environment variables override
// file values: LOGGING_LEVEL sets logging.level, GOOGLE_BUCKET_NAME sets
// google.bucket_name, and so on.
//
//	var cfg worker.Config
//	if err := config.LoadConfig("transcribe-worker", &cfg); err != nil { ... }
package config
