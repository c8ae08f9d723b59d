// Package config loads service configuration with viper and godotenv.
//
// LoadConfig looks for a YAML file and a .env file in the usual places
// (./cmd/<service>/, ./config/, the working directory and its parents),
// reads the YAML first, then overlays environment variables. With
// WithEnvPrefix("DEFERHTTP") only DEFERHTTP_* variables are bound, so
// DEFERHTTP_SESSION_ERROR_MODE=always sets session.error_mode.
//
//	type AppConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Session session.Config `mapstructure:"session"`
//	}
//
//	var cfg AppConfig
//	err := config.LoadConfig("my-svc", &cfg, config.WithEnvPrefix("DEFERHTTP"))
package config
