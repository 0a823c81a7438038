package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 ASSETGATE_STORAGE_DEFAULT
const EnvPrefix = "ASSETGATE"

// Config 表示配置管理器
//
// 配置只在启动时读取一次，不监听文件变化。
type Config struct {
	// viper实例
	viper *viper.Viper

	// 配置文件路径
	configPath string

	// 配置文件名
	configName string

	// 配置文件类型
	configType string

	// 显式指定的配置文件
	configFile string

	// 环境
	env string

	// 环境变量前缀
	envPrefix string

	// 是否已加载
	loaded bool
}

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// NewConfig 创建一个新的配置管理器
func NewConfig(options ...ConfigOption) *Config {
	cfg := &Config{
		viper:      viper.New(),
		configPath: "./config",
		configName: "config",
		configType: "yaml",
		env:        "development",
		envPrefix:  EnvPrefix,
	}

	// 应用选项
	for _, opt := range options {
		opt(cfg)
	}

	setDefaults(cfg.viper)
	return cfg
}

// WithConfigPath 设置配置文件路径
func WithConfigPath(path string) ConfigOption {
	return func(c *Config) {
		c.configPath = path
	}
}

// WithConfigName 设置配置文件名
func WithConfigName(name string) ConfigOption {
	return func(c *Config) {
		c.configName = name
	}
}

// WithConfigType 设置配置文件类型
func WithConfigType(configType string) ConfigOption {
	return func(c *Config) {
		c.configType = configType
	}
}

// WithConfigFile 直接指定配置文件，忽略路径和文件名设置
func WithConfigFile(file string) ConfigOption {
	return func(c *Config) {
		c.configFile = file
	}
}

// WithEnvironment 设置环境
func WithEnvironment(env string) ConfigOption {
	return func(c *Config) {
		c.env = env
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "assetgate")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("storage.default", "local")
	v.SetDefault("storage.cdn.driver", "")
	v.SetDefault("storage.local.root", "./storage")
	v.SetDefault("storage.local.base_url", "/storage")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "assetgate")
	v.SetDefault("metrics.enabled", false)
}

// Load 加载配置文件
//
// 找不到配置文件时只使用默认值和环境变量；存在 {name}.{env}.{type} 时覆盖到基础配置之上。
func (c *Config) Load() error {
	// 加载环境变量
	c.viper.SetEnvPrefix(c.envPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()

	if c.configFile != "" {
		c.viper.SetConfigFile(c.configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config: 读取配置文件失败: %w", err)
		}
		c.loaded = true
		return nil
	}

	c.viper.AddConfigPath(c.configPath)
	c.viper.SetConfigName(c.configName)
	c.viper.SetConfigType(c.configType)

	if err := c.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: 读取配置文件失败: %w", err)
		}
	}

	// 尝试加载特定环境的配置文件
	if c.env != "" {
		envConfigPath := filepath.Join(c.configPath, fmt.Sprintf("%s.%s.%s", c.configName, c.env, c.configType))
		if _, err := os.Stat(envConfigPath); err == nil {
			c.viper.SetConfigFile(envConfigPath)
			if err := c.viper.MergeInConfig(); err != nil {
				return fmt.Errorf("config: 合并环境配置失败: %w", err)
			}
		}
	}

	c.loaded = true
	return nil
}

// Env 返回当前环境
func (c *Config) Env() string {
	return c.env
}

// ConfigFileUsed 返回实际读取的配置文件
func (c *Config) ConfigFileUsed() string {
	return c.viper.ConfigFileUsed()
}

// Get 获取指定键的配置值
func (c *Config) Get(key string) interface{} {
	return c.viper.Get(key)
}

// GetString 获取字符串配置值
func (c *Config) GetString(key string) string {
	return c.viper.GetString(key)
}

// GetInt 获取整数配置值
func (c *Config) GetInt(key string) int {
	return c.viper.GetInt(key)
}

// GetBool 获取布尔配置值
func (c *Config) GetBool(key string) bool {
	return c.viper.GetBool(key)
}

// GetDuration 获取时间间隔配置值
func (c *Config) GetDuration(key string) time.Duration {
	return c.viper.GetDuration(key)
}

// Unmarshal 将配置解析到结构体
func (c *Config) Unmarshal(key string, rawVal interface{}) error {
	return c.viper.UnmarshalKey(key, rawVal)
}

// Set 设置配置值
func (c *Config) Set(key string, value interface{}) {
	c.viper.Set(key, value)
}

// Has 检查是否存在指定键
func (c *Config) Has(key string) bool {
	return c.viper.IsSet(key)
}

// AllKeys 获取所有配置键，包括默认值和环境变量覆盖的键
func (c *Config) AllKeys() []string {
	return c.viper.AllKeys()
}

// AllSettings 获取所有配置
func (c *Config) AllSettings() map[string]interface{} {
	return c.viper.AllSettings()
}

// IsLoaded 检查配置是否已加载
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// Load 创建并加载配置，随后解析为AppConfig并校验
func Load(options ...ConfigOption) (*Config, *AppConfig, error) {
	cfg := NewConfig(options...)
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}

	var app AppConfig
	if err := cfg.viper.Unmarshal(&app); err != nil {
		return nil, nil, fmt.Errorf("config: 解析配置失败: %w", err)
	}
	if err := Validate(&app); err != nil {
		return nil, nil, err
	}

	return cfg, &app, nil
}
