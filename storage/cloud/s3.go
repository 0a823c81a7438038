package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zzliekkas/assetgate/storage"
)

// S3Config S3配置选项
type S3Config struct {
	// Endpoint 自定义端点，为空时使用AWS默认端点
	Endpoint string `mapstructure:"endpoint"`

	// Region 区域
	Region string `mapstructure:"region" validate:"required"`

	// Bucket 存储桶名称
	Bucket string `mapstructure:"bucket" validate:"required"`

	// AccessKey 访问密钥ID
	AccessKey string `mapstructure:"access_key" validate:"required"`

	// SecretKey 访问密钥
	SecretKey string `mapstructure:"secret_key" validate:"required"`

	// UseSSL 是否使用SSL
	UseSSL bool `mapstructure:"use_ssl"`

	// ForcePathStyle 是否强制使用路径风格的URL
	ForcePathStyle bool `mapstructure:"force_path_style"`

	// CDNDomain CDN域名，配置后GetURL始终返回CDN地址
	CDNDomain string `mapstructure:"cdn_domain"`
}

// DefaultS3Config 返回默认S3配置
func DefaultS3Config() S3Config {
	return S3Config{
		Region: "us-east-1",
		UseSSL: true,
	}
}

// s3API S3客户端中适配器用到的操作，*s3.Client实现了该接口
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// s3Presigner 预签名客户端，*s3.PresignClient实现了该接口
type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ s3API       = (*s3.Client)(nil)
	_ s3Presigner = (*s3.PresignClient)(nil)
)

// AWSS3 AWS S3存储适配器
type AWSS3 struct {
	client    s3API
	presigner s3Presigner
	config    S3Config
	options
}

// NewS3 创建S3存储
func NewS3(cfg S3Config, opts ...Option) (*AWSS3, error) {
	// 创建自定义凭证提供者
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: 加载配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", scheme(cfg.UseSSL), stripScheme(cfg.Endpoint)))
		}
	})

	return newS3WithClient(client, s3.NewPresignClient(client), cfg, opts...), nil
}

func newS3WithClient(client s3API, presigner s3Presigner, cfg S3Config, opts ...Option) *AWSS3 {
	return &AWSS3{
		client:    client,
		presigner: presigner,
		config:    cfg,
		options:   newOptions(storage.ProviderAWSS3, opts),
	}
}

// Upload 实现storage.Storage接口
func (s *AWSS3) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(plan.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(plan.Size),
		ContentType:   aws.String(plan.ContentType),
		Metadata:      plan.Metadata,
	}
	if plan.Public {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3: 上传对象失败: %w", err)
	}

	url, err := s.GetURL(ctx, plan.Key, 0)
	if err != nil {
		return nil, err
	}
	return plan.Result(url, storage.ProviderAWSS3), nil
}

// Delete 实现storage.Storage接口，S3删除不存在的对象同样返回成功
func (s *AWSS3) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(storage.NormalizeKey(key)),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("s3: 删除对象失败: %w", err)
	}
	return nil
}

// Exists 实现storage.Storage接口
func (s *AWSS3) Exists(ctx context.Context, key string) bool {
	if storage.ValidateKey(key) != nil {
		return false
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(storage.NormalizeKey(key)),
	})
	if err != nil {
		if !isS3NotFound(err) {
			s.logger.WithField("key", key).WithError(err).Debug("检查对象是否存在失败")
		}
		return false
	}
	return true
}

// GetURL 实现storage.Storage接口
func (s *AWSS3) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	sign := func(key string, expiresIn time.Duration) (string, error) {
		request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiresIn))
		if err != nil {
			return "", fmt.Errorf("s3: 生成签名URL失败: %w", err)
		}
		return request.URL, nil
	}
	return resolveURL(key, s.config.CDNDomain, expiresIn, sign, s.publicURL)
}

// GetProvider 实现storage.Storage接口
func (s *AWSS3) GetProvider() storage.Provider {
	return storage.ProviderAWSS3
}

func (s *AWSS3) publicURL(key string) string {
	endpoint := stripScheme(s.config.Endpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", s.config.Region)
	}

	if s.config.ForcePathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", scheme(s.config.UseSSL), endpoint, s.config.Bucket, key)
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme(s.config.UseSSL), s.config.Bucket, endpoint, key)
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
