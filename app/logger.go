package app

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/assetgate/config"
)

// NewLogger 根据日志配置创建日志记录器
func NewLogger(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("无效的日志级别 '%s': %w", cfg.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	return logger, nil
}
