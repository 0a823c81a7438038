package local

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/assetgate/storage"
)

// metaDir 元数据目录，位于根目录下，不能作为对象键的第一段
const metaDir = ".meta"

// Config 本地文件系统配置
type Config struct {
	// Root 根目录
	Root string `mapstructure:"root" validate:"required"`

	// BaseURL 对外访问的基础URL
	BaseURL string `mapstructure:"base_url"`

	// CDNDomain CDN域名，配置后GetURL始终返回CDN地址
	CDNDomain string `mapstructure:"cdn_domain"`

	// SigningKey 签名URL使用的HMAC密钥，为空时不支持签名URL
	SigningKey string `mapstructure:"signing_key"`

	// DirectoryPermissions 目录权限
	DirectoryPermissions os.FileMode `mapstructure:"directory_permissions"`

	// PublicPermissions 公共文件权限
	PublicPermissions os.FileMode `mapstructure:"public_permissions"`

	// PrivatePermissions 私有文件权限
	PrivatePermissions os.FileMode `mapstructure:"private_permissions"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Root:                 "./storage",
		BaseURL:              "/storage",
		DirectoryPermissions: 0755,
		PublicPermissions:    0644,
		PrivatePermissions:   0600,
	}
}

// ErrSigningKeyMissing 未配置签名密钥
var ErrSigningKeyMissing = errors.New("local: 未配置签名密钥，无法生成签名URL")

// sidecar 对象元数据文件内容
type sidecar struct {
	OriginalName string            `json:"originalName"`
	ContentType  string            `json:"contentType"`
	Public       bool              `json:"public"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	UploadedAt   time.Time         `json:"uploadedAt"`
}

// Storage 本地文件系统存储，主要用于开发环境和端到端测试
type Storage struct {
	root   string
	config Config
	names  storage.NameGenerator
	logger logrus.FieldLogger
	now    func() time.Time
}

// Option 本地存储选项
type Option func(*Storage)

// WithNameGenerator 设置文件名生成器
func WithNameGenerator(gen storage.NameGenerator) Option {
	return func(s *Storage) {
		s.names = gen
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithClock 设置签名URL使用的时钟
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New 创建本地文件系统存储
func New(config Config, opts ...Option) (*Storage, error) {
	defaults := DefaultConfig()
	if config.Root == "" {
		config.Root = defaults.Root
	}
	if config.DirectoryPermissions == 0 {
		config.DirectoryPermissions = defaults.DirectoryPermissions
	}
	if config.PublicPermissions == 0 {
		config.PublicPermissions = defaults.PublicPermissions
	}
	if config.PrivatePermissions == 0 {
		config.PrivatePermissions = defaults.PrivatePermissions
	}

	// 确保根目录存在
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("local: 解析根目录失败: %w", err)
	}
	if err := os.MkdirAll(root, config.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("local: 创建根目录失败: %w", err)
	}

	s := &Storage{
		root:   root,
		config: config,
		names:  storage.DefaultNameGenerator,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Upload 写入文件并记录元数据
func (s *Storage) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	fullPath, err := s.fullPath(plan.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), s.config.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("local: 创建目录失败: %w", err)
	}

	mode := s.config.PrivatePermissions
	if plan.Public {
		mode = s.config.PublicPermissions
	}
	if err := os.WriteFile(fullPath, data, mode); err != nil {
		return nil, fmt.Errorf("local: 写入文件失败: %w", err)
	}
	// 覆盖已有文件时WriteFile不会修改权限
	if err := os.Chmod(fullPath, mode); err != nil {
		return nil, fmt.Errorf("local: 设置文件权限失败: %w", err)
	}

	if err := s.writeSidecar(plan); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"provider": storage.ProviderLocal,
		"key":      plan.Key,
	}).Debug("本地文件写入成功")

	return plan.Result(s.publicURL(plan.Key), storage.ProviderLocal), nil
}

// Delete 删除文件，文件不存在视为删除成功
func (s *Storage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("local: 读取文件信息失败: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("local: 删除失败: '%s' 是一个目录", key)
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: 删除文件失败: %w", err)
	}

	if err := os.Remove(s.sidecarPath(key)); err != nil && !os.IsNotExist(err) {
		s.logger.WithField("key", key).WithError(err).Warn("删除元数据文件失败")
	}
	return nil
}

// Exists 检查文件是否存在
func (s *Storage) Exists(ctx context.Context, key string) bool {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// GetURL 获取文件URL，expiresIn大于0时返回HMAC签名URL
func (s *Storage) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	key = storage.NormalizeKey(key)

	if s.config.CDNDomain != "" || expiresIn <= 0 {
		return s.publicURL(key), nil
	}

	if s.config.SigningKey == "" {
		return "", ErrSigningKeyMissing
	}

	expires := s.now().Add(expiresIn).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("signature", s.sign(key, expires))

	return s.publicURL(key) + "?" + query.Encode(), nil
}

// GetProvider 返回后端标识
func (s *Storage) GetProvider() storage.Provider {
	return storage.ProviderLocal
}

// Verify 校验签名URL中的expires和signature参数
func (s *Storage) Verify(key, expires, signature string) bool {
	if s.config.SigningKey == "" {
		return false
	}

	expiresAt, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || s.now().Unix() > expiresAt {
		return false
	}

	expected := s.sign(storage.NormalizeKey(key), expiresAt)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// IsPublic 读取对象的访问策略，找不到元数据时视为私有
func (s *Storage) IsPublic(key string) bool {
	meta, err := s.readSidecar(key)
	if err != nil {
		return false
	}
	return meta.Public
}

// Metadata 读取对象的自定义元数据
func (s *Storage) Metadata(key string) (map[string]string, error) {
	meta, err := s.readSidecar(key)
	if err != nil {
		return nil, err
	}
	return meta.Metadata, nil
}

// ContentType 读取对象的内容类型
func (s *Storage) ContentType(key string) (string, error) {
	meta, err := s.readSidecar(key)
	if err != nil {
		return "", err
	}
	return meta.ContentType, nil
}

func (s *Storage) publicURL(key string) string {
	if s.config.CDNDomain != "" {
		return storage.JoinURL(s.config.CDNDomain, key)
	}
	return storage.JoinURL(s.config.BaseURL, key)
}

func (s *Storage) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.config.SigningKey))
	mac.Write([]byte(key + "\n" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// fullPath 将对象键映射为根目录下的路径，拒绝逃逸出根目录的键
func (s *Storage) fullPath(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	key = storage.NormalizeKey(key)
	if key == metaDir || strings.HasPrefix(key, metaDir+"/") {
		return "", storage.ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *Storage) sidecarPath(key string) string {
	return filepath.Join(s.root, metaDir, filepath.FromSlash(storage.NormalizeKey(key))+".json")
}

func (s *Storage) writeSidecar(plan storage.UploadPlan) error {
	content, err := json.MarshalIndent(sidecar{
		OriginalName: plan.OriginalName,
		ContentType:  plan.ContentType,
		Public:       plan.Public,
		Metadata:     plan.Metadata,
		UploadedAt:   s.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("local: 序列化元数据失败: %w", err)
	}

	path := s.sidecarPath(plan.Key)
	if err := os.MkdirAll(filepath.Dir(path), s.config.DirectoryPermissions); err != nil {
		return fmt.Errorf("local: 创建元数据目录失败: %w", err)
	}
	if err := os.WriteFile(path, content, s.config.PrivatePermissions); err != nil {
		return fmt.Errorf("local: 写入元数据失败: %w", err)
	}
	return nil
}

func (s *Storage) readSidecar(key string) (*sidecar, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.sidecarPath(key))
	if err != nil {
		return nil, fmt.Errorf("local: 读取元数据失败: %w", err)
	}

	var meta sidecar
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("local: 解析元数据失败: %w", err)
	}
	return &meta, nil
}
