package config

// AppConfig 应用配置
type AppConfig struct {
	App     AppInfo       `mapstructure:"app"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppInfo 应用基础信息
type AppInfo struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// StorageConfig 存储配置，各后端的详细配置位于 storage.<section>
type StorageConfig struct {
	// Default 使用的存储后端
	Default string `mapstructure:"default" validate:"required,oneof=aliyun-oss tencent-cos minio aws-s3 qiniu-kodo local"`

	// CDN 缓存刷新配置
	CDN CDNConfig `mapstructure:"cdn"`
}

// CDNConfig 缓存刷新配置
type CDNConfig struct {
	// Driver 刷新驱动：cloudflare、qiniu、provider，为空表示不刷新
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=cloudflare qiniu provider"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	PrettyPrint bool   `mapstructure:"pretty_print"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
