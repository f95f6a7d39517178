// Package config loads YAML configuration files with environment overrides.
//
// LoadConfig resolves config.yml and .env files for a named application,
// loads the .env file with godotenv and binds every environment variable
// onto viper keys, so HTTPCALL_CLIENT_BASE_URL style names reach nested
// fields such as client.base_url.
//
//	var cfg AppConfig
//	err := config.LoadConfig("httpcall", &cfg, config.WithConfigFile(path))
package config
