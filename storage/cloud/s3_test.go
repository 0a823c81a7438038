package cloud

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/assetgate/storage"
)

// fakeS3 记录请求参数的S3客户端
type fakeS3 struct {
	putInput  *s3.PutObjectInput
	putBody   []byte
	putErr    error
	deleteErr error
	headErr   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	f.putBody, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, f.headErr
}

// fakePresigner 返回固定签名地址并记录有效期
type fakePresigner struct {
	expires time.Duration
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://assets.s3.us-east-1.amazonaws.com/" + aws.ToString(params.Key) + "?X-Amz-Signature=abc",
		Method: "GET",
	}, nil
}

func newTestS3(client *fakeS3, presigner *fakePresigner, mutate func(*S3Config)) *AWSS3 {
	cfg := DefaultS3Config()
	cfg.Bucket = "assets"
	if mutate != nil {
		mutate(&cfg)
	}
	return newS3WithClient(client, presigner, cfg, WithLogger(logrus.New()), WithNameGenerator(fixedNames("1700000000000-abc")))
}

func TestS3Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("测试公共读上传", func(t *testing.T) {
		client := &fakeS3{}
		result, err := newTestS3(client, &fakePresigner{}, nil).Upload(ctx, []byte("gif"), "a.gif", &storage.UploadOptions{
			Metadata: map[string]string{"owner": "alice"},
		})
		require.NoError(t, err)

		assert.Equal(t, "assets", aws.ToString(client.putInput.Bucket))
		assert.Equal(t, "1700000000000-abc.gif", aws.ToString(client.putInput.Key))
		assert.Equal(t, "image/gif", aws.ToString(client.putInput.ContentType))
		assert.Equal(t, int64(3), aws.ToInt64(client.putInput.ContentLength))
		assert.Equal(t, types.ObjectCannedACLPublicRead, client.putInput.ACL)
		assert.Equal(t, map[string]string{"owner": "alice"}, client.putInput.Metadata)
		assert.Equal(t, []byte("gif"), client.putBody)

		assert.Equal(t, "https://assets.s3.us-east-1.amazonaws.com/1700000000000-abc.gif", result.URL)
		assert.Equal(t, storage.ProviderAWSS3, result.Provider)
	})

	t.Run("测试私有上传不设置ACL", func(t *testing.T) {
		client := &fakeS3{}
		_, err := newTestS3(client, &fakePresigner{}, nil).Upload(ctx, []byte("gif"), "a.gif", &storage.UploadOptions{IsPublic: storage.Bool(false)})
		require.NoError(t, err)
		assert.Empty(t, client.putInput.ACL)
	})

	t.Run("测试上传失败", func(t *testing.T) {
		client := &fakeS3{putErr: errors.New("RequestTimeout")}
		_, err := newTestS3(client, &fakePresigner{}, nil).Upload(ctx, []byte("gif"), "a.gif", nil)
		assert.ErrorIs(t, err, client.putErr)
	})
}

func TestS3DeleteAndExists(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, newTestS3(&fakeS3{}, nil, nil).Delete(ctx, "a.png"))
	assert.NoError(t, newTestS3(&fakeS3{deleteErr: &types.NoSuchKey{}}, nil, nil).Delete(ctx, "a.png"))
	assert.Error(t, newTestS3(&fakeS3{deleteErr: errors.New("AccessDenied")}, nil, nil).Delete(ctx, "a.png"))

	assert.True(t, newTestS3(&fakeS3{}, nil, nil).Exists(ctx, "a.png"))
	assert.False(t, newTestS3(&fakeS3{headErr: &types.NotFound{}}, nil, nil).Exists(ctx, "a.png"))
	assert.False(t, newTestS3(&fakeS3{headErr: errors.New("timeout")}, nil, nil).Exists(ctx, "a.png"))
}

func TestS3GetURL(t *testing.T) {
	ctx := context.Background()

	t.Run("测试签名URL", func(t *testing.T) {
		presigner := &fakePresigner{}
		u, err := newTestS3(&fakeS3{}, presigner, nil).GetURL(ctx, "a.png", 5*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, u, "X-Amz-Signature")
		assert.Equal(t, 5*time.Minute, presigner.expires)
	})

	t.Run("测试路径风格", func(t *testing.T) {
		s := newTestS3(&fakeS3{}, nil, func(c *S3Config) {
			c.Endpoint = "http://localhost:9000"
			c.UseSSL = false
			c.ForcePathStyle = true
		})
		u, err := s.GetURL(ctx, "a.png", 0)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/assets/a.png", u)
	})
}
