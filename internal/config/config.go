package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers the ledger can run on.
const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Storage StorageConfig `mapstructure:"storage"`
	Ops     OpsConfig     `mapstructure:"ops"`
	Log     LogConfig     `mapstructure:"log"`
}

type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	Prefix    string `mapstructure:"prefix"`
	ChannelID string `mapstructure:"channel_id"`
	GuildID   string `mapstructure:"guild_id"`
	// AdminIDs is a comma-separated list of user ids with bank privileges.
	AdminIDs string `mapstructure:"admin_ids"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	Path          string `mapstructure:"path"`
	DSN           string `mapstructure:"dsn"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type OpsConfig struct {
	Addr        string `mapstructure:"addr"`
	AuthID      string `mapstructure:"auth_id"`
	AuthKeyHash string `mapstructure:"auth_key_hash"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given file (optional), a guildbank.yaml
// in the working directory, and GUILDBANK_* environment variables, in
// ascending precedence of environment over file over defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("discord.prefix", "+")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.path", "guildbank-data")
	v.SetDefault("storage.migrations_dir", "migrations")
	v.SetDefault("ops.addr", ":8080")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("GUILDBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so keys without
	// defaults must be bound before they can arrive through the environment.
	for _, key := range []string{
		"discord.token",
		"discord.channel_id",
		"discord.guild_id",
		"discord.admin_ids",
		"storage.dsn",
		"ops.auth_id",
		"ops.auth_key_hash",
	} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", path, err)
		}
	} else {
		v.SetConfigName("guildbank")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Storage.Driver == DriverPostgres {
		cfg.Storage.DSN = normalizeConnectionString(cfg.Storage.DSN)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return errors.New("discord token is required")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBadger, DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage path is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// AdminUserIDs parses the comma-separated privilege list.
func (c DiscordConfig) AdminUserIDs() ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(c.AdminIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// normalizeConnectionString accepts both key=value DSNs and the
// semicolon-separated Host=...;Port=... form and rewrites the latter into
// what lib/pq expects.
func normalizeConnectionString(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
