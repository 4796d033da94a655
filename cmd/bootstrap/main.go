// Command bootstrap prepares a fresh deployment: it applies the database
// migrations and makes sure an administrator account exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/userservice"
)

type config struct {
	Environment    string `mapstructure:"ENVIRONMENT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`

	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

func (c *config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func loadConfig(path string) (*config, error) {
	v := viper.New()

	defaults := map[string]any{
		"ENVIRONMENT":       "development",
		"LOG_LEVEL":         "info",
		"MIGRATIONS_PATH":   "file://migrations",
		"POSTGRES_HOST":     "localhost",
		"POSTGRES_PORT":     "5432",
		"POSTGRES_USER":     "",
		"POSTGRES_PASSWORD": "",
		"POSTGRES_DB":       "",
		"ADMIN_USERNAME":    "",
		"ADMIN_EMAIL":       "",
		"ADMIN_PASSWORD":    "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func main() {
	path := ".env"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := loadConfig(path)
	if err != nil {
		boot := common.NewLogger("production", "info")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := common.NewLogger(cfg.Environment, cfg.LogLevel)

	m, err := common.Migrate(cfg.MigrationsPath, cfg.dsn())
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.MigrationsPath).Msg("failed to apply migrations")
	}
	version, dirty, _ := m.Version()
	m.Close()
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")

	if cfg.AdminUsername == "" {
		logger.Info().Msg("ADMIN_USERNAME not set, skipping administrator")
		return
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 1, 1, time.Minute)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer common.CloseDB(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// No broker, cache or rename cascade: EnsureAdmin touches none of them.
	users := userservice.NewUserService(db, nil, nil, nil)

	created, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Fatal().Err(err).Str("username", cfg.AdminUsername).Msg("failed to create administrator")
	}

	if created {
		logger.Info().Str("username", cfg.AdminUsername).Msg("administrator created")
	} else {
		logger.Info().Msg("administrator already exists")
	}
}
