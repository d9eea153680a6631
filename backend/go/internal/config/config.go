package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/circuitbreaker"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath 是用于覆盖默认配置文件路径的环境变量名。
const EnvConfigPath = "AGRIPRED_CONFIG"

// DefaultConfigPath 是未设置环境变量时使用的配置文件路径。
const DefaultConfigPath = "backend/go/internal/config/config.yaml"

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint      string `yaml:"endpoint"`      // MinIO 服务端点
	AccessKey     string `yaml:"accessKey"`     // 访问密钥
	SecretKey     string `yaml:"secretKey"`     // Secret 密钥
	Bucket        string `yaml:"bucket"`        // 默认存储桶名称
	Secure        bool   `yaml:"secure"`        // 是否使用HTTPS
	PublicBaseURL string `yaml:"publicBaseURL"` // 对外可访问的基础 URL，为空时由 endpoint 推导
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // Kafka 主题列表
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Redis   RedisConfig `yaml:"redis"`   // Redis 数据库配置
	MySQL   MySQLConfig `yaml:"mysql"`   // MySQL 数据库配置
	MinIO   MinIOConfig `yaml:"minio"`   // MinIO 对象存储配置
	MongoDB MongoConfig `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig `yaml:"kafka"`   // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// AuthConfig 用于配置 JWT 认证。
type AuthConfig struct {
	JwtSecret  string `yaml:"jwtSecret"`  // JWT 密钥
	TokenTTL   int    `yaml:"tokenTTL"`   // JWT 令牌的有效期（秒）
	CookieName   string `yaml:"cookieName"`   // 可选的 token cookie 名称
	CookieSecure bool   `yaml:"cookieSecure"` // cookie 是否只通过 HTTPS 发送
	Issuer     string `yaml:"issuer"`     // 签发者
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// UploadMode 决定上传的图片在进入业务逻辑之前如何落地。
type UploadMode string

const (
	// UploadModeStaged 先写入本地临时目录，再由 Storage Resolver 上传。
	UploadModeStaged UploadMode = "staged"
	// UploadModeDirect 在接收 multipart 时直接写入对象存储。
	UploadModeDirect UploadMode = "direct"
)

// PredictionServiceConfig 是预测记录服务的配置。
type PredictionServiceConfig struct {
	ServerAddress   string     `yaml:"serverAddress"`   // HTTP 监听地址
	MongoCollection string     `yaml:"mongoCollection"` // 记录集合名称
	UploadNamespace string     `yaml:"uploadNamespace"` // 对象存储中的逻辑命名空间
	HostedSchemes   []string   `yaml:"hostedSchemes"`   // 视为“已托管”的 URL 前缀
	UploadMode      UploadMode `yaml:"uploadMode"`      // "staged" 或 "direct"
	UploadTempDir   string     `yaml:"uploadTempDir"`   // staged 模式下的临时目录
	MaxUploadBytes  int64      `yaml:"maxUploadBytes"`  // 单次上传最大字节数
	AllowedFormats  []string   `yaml:"allowedFormats"`  // 允许的图片扩展名
	EventsTopic     string     `yaml:"eventsTopic"`     // 记录创建事件的 Kafka 主题，为空则不发布
	HistoryCacheTTL string     `yaml:"historyCacheTTL"` // 历史记录缓存有效期，为空则不启用缓存
}

// UserServiceConfig 是用户服务的配置。
type UserServiceConfig struct {
	ServerAddress       string   `yaml:"serverAddress"`
	ProfilePicNamespace string   `yaml:"profilePicNamespace"` // 头像在对象存储中的命名空间
	UploadTempDir       string   `yaml:"uploadTempDir"`       // 头像上传的临时目录
	MaxUploadBytes      int64    `yaml:"maxUploadBytes"`      // 头像最大字节数
	AllowedFormats      []string `yaml:"allowedFormats"`      // 允许的头像扩展名
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App               AppInfo                 `yaml:"app"`               // 应用程序信息
	Auth              AuthConfig              `yaml:"auth"`              // 认证配置
	Logger            LoggerConfig            `yaml:"logger"`            // 日志记录器配置
	Databases         DatabaseConfigs         `yaml:"databases"`         // 数据库配置
	Middleware        MiddlewareConfig        `yaml:"middleware"`        // 中间件配置
	PredictionService PredictionServiceConfig `yaml:"predictionService"` // 预测记录服务配置
	UserService       UserServiceConfig       `yaml:"userService"`       // 用户服务配置
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了按用户限流的令牌桶配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置，结构由 circuitbreaker 包提供。
type CircuitBreakerConfig = circuitbreaker.Config

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，并填充默认值。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err = yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath 返回环境变量指定的配置路径，未设置时返回默认路径。
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// ApplyDefaults 为未设置的字段填充默认值。
func (c *AppConfig) ApplyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 7 * 24 * 3600
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "agripred_user_service"
	}

	ps := &c.PredictionService
	if ps.ServerAddress == "" {
		ps.ServerAddress = ":5000"
	}
	if ps.MongoCollection == "" {
		ps.MongoCollection = "predictions"
	}
	if ps.UploadNamespace == "" {
		ps.UploadNamespace = "crop_predictions"
	}
	if len(ps.HostedSchemes) == 0 {
		ps.HostedSchemes = []string{"https://", "http://"}
	}
	if ps.UploadMode == "" {
		ps.UploadMode = UploadModeStaged
	}
	if ps.UploadTempDir == "" {
		ps.UploadTempDir = os.TempDir()
	}
	if ps.MaxUploadBytes <= 0 {
		ps.MaxUploadBytes = 10 << 20
	}
	if len(ps.AllowedFormats) == 0 {
		ps.AllowedFormats = []string{"jpg", "jpeg", "png"}
	}

	us := &c.UserService
	if us.ServerAddress == "" {
		us.ServerAddress = ":5001"
	}
	if us.ProfilePicNamespace == "" {
		us.ProfilePicNamespace = "profile_pics"
	}
	if us.UploadTempDir == "" {
		us.UploadTempDir = os.TempDir()
	}
	if us.MaxUploadBytes <= 0 {
		us.MaxUploadBytes = 5 << 20
	}
	if len(us.AllowedFormats) == 0 {
		us.AllowedFormats = []string{"jpg", "jpeg", "png"}
	}
}

// Validate 检查配置中无法使用默认值替代的字段。
func (c *AppConfig) Validate() error {
	if c.Auth.JwtSecret == "" {
		return fmt.Errorf("auth.jwtSecret 不能为空")
	}
	switch c.PredictionService.UploadMode {
	case UploadModeStaged, UploadModeDirect:
	default:
		return fmt.Errorf("未知的 predictionService.uploadMode: %q", c.PredictionService.UploadMode)
	}
	if _, err := c.PredictionService.CacheTTL(); err != nil {
		return err
	}
	return nil
}

// CacheTTL 解析 historyCacheTTL。返回 0 表示不启用缓存；显式配置的值必须为正。
func (p PredictionServiceConfig) CacheTTL() (time.Duration, error) {
	if p.HistoryCacheTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(p.HistoryCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("无效的 predictionService.historyCacheTTL: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("predictionService.historyCacheTTL 必须大于 0: %q", p.HistoryCacheTTL)
	}
	return ttl, nil
}
