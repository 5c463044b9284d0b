package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 部署形态：full 为带账号体系的账单服务，minimal 为无鉴权的家庭记账本
const (
	ProfileFull    = "full"
	ProfileMinimal = "minimal"
)

// 支持的数据库驱动
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	Profile         string        `mapstructure:"profile"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"` // sqlite only
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

type SecurityConfig struct {
	BcryptCost       int `mapstructure:"bcrypt_cost"`
	MaxLoginAttempts int `mapstructure:"max_login_attempts"`
	LockMinutes      int `mapstructure:"lock_minutes"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// RedisConfig 为空地址时，token 吊销改为落库
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AppSubConfig struct {
	PageSize    int `mapstructure:"page_size"`
	ExportLimit int `mapstructure:"export_limit"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	App      AppSubConfig   `mapstructure:"app"`
}

// TokenTTL returns the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireMinutes) * time.Minute
}

// LockDuration returns how long an account stays locked after too many
// failed logins.
func (c *Config) LockDuration() time.Duration {
	return time.Duration(c.Security.LockMinutes) * time.Minute
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.profile", ProfileFull)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "./data/ledger.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.pass", "")
	v.SetDefault("database.name", "family_ledger")
	v.SetDefault("database.log_mode", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "family-ledger")
	v.SetDefault("jwt.expire_minutes", 30)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lock_minutes", 10)

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("app.page_size", 100)
	v.SetDefault("app.export_limit", 10000)
}

// 兼容原有部署使用的环境变量名
var envBindings = map[string]string{
	"database.driver": "DB_DRIVER",
	"database.path":   "DB_PATH",
	"database.host":   "DB_HOST",
	"database.port":   "DB_PORT",
	"database.user":   "DB_USER",
	"database.pass":   "DB_PASS",
	"database.name":   "DB_NAME",
	"jwt.secret":      "JWT_SECRET",
	"redis.addr":      "REDIS_ADDR",
	"redis.password":  "REDIS_PASSWORD",
}

// Load builds the configuration from defaults, the optional YAML file at path
// (missing file is fine), a .env file in the working directory and the
// environment. Environment wins, e.g. LEDGER_SERVER_PORT=9000 or DB_HOST=db.
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.Database.Port == 0 {
		c.Database.Port = defaultPort(c.Database.Driver)
	}
	return &c, nil
}

func defaultPort(driver string) int {
	switch driver {
	case DriverPostgres:
		return 5432
	case DriverMySQL:
		return 3306
	}
	return 0
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.Profile != ProfileFull && c.Server.Profile != ProfileMinimal {
		problems = append(problems, fmt.Sprintf("invalid profile %q: must be %q or %q", c.Server.Profile, ProfileFull, ProfileMinimal))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "database path cannot be empty when using sqlite")
		}
	case DriverPostgres, DriverMySQL:
		if c.Database.Host == "" {
			problems = append(problems, "DB_HOST is required for "+c.Database.Driver)
		}
		if c.Database.Name == "" {
			problems = append(problems, "DB_NAME is required for "+c.Database.Driver)
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid database driver %q: must be one of sqlite, postgres, mysql", c.Database.Driver))
	}

	// minimal 形态没有登录，不需要密钥
	if c.Server.Profile == ProfileFull {
		if c.JWT.Secret == "" {
			problems = append(problems, "jwt secret is required (set JWT_SECRET)")
		}
		if c.JWT.ExpireMinutes <= 0 {
			problems = append(problems, fmt.Sprintf("invalid jwt expire_minutes %d: must be positive", c.JWT.ExpireMinutes))
		}
		if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
			problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.Security.BcryptCost))
		}
	}

	if c.App.PageSize <= 0 {
		problems = append(problems, "app.page_size must be positive")
	}
	if c.App.ExportLimit < c.App.PageSize {
		problems = append(problems, "app.export_limit must be at least app.page_size")
	}

	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid CORS origin %q", origin))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
