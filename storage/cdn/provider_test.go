package cdn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/storage"
)

type plainStore struct{}

func (plainStore) Upload(context.Context, []byte, string, *storage.UploadOptions) (*storage.UploadResult, error) {
	return &storage.UploadResult{}, nil
}
func (plainStore) Delete(context.Context, string) error { return nil }
func (plainStore) Exists(context.Context, string) bool { return false }
func (plainStore) GetURL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}
func (plainStore) GetProvider() storage.Provider { return storage.ProviderMinIO }

type purgingStore struct {
	plainStore
}

func (purgingStore) InvalidateCache(context.Context, string) bool { return true }
func (purgingStore) InvalidateDirectory(context.Context, string) bool { return true }

func TestResolvePurger(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Set("storage.cdn.cloudflare.zone_id", "zone")
	cfg.Set("storage.cdn.cloudflare.api_token", "token")
	cfg.Set("storage.cdn.cloudflare.domain", "https://cdn.example.com")
	cfg.Set("storage.cdn.qiniu.access_key", "ak")
	cfg.Set("storage.cdn.qiniu.secret_key", "sk")

	t.Run("测试未启用", func(t *testing.T) {
		purger, err := ResolvePurger(DriverNone, cfg, plainStore{})
		require.NoError(t, err)
		assert.Nil(t, purger)
	})

	t.Run("测试Cloudflare", func(t *testing.T) {
		purger, err := ResolvePurger(DriverCloudflare, cfg, plainStore{})
		require.NoError(t, err)
		require.IsType(t, &Cloudflare{}, purger)
		assert.Equal(t, 3, purger.(*Cloudflare).config.MaxRetries)
		assert.Equal(t, "zone", purger.(*Cloudflare).config.ZoneID)
	})

	t.Run("测试七牛", func(t *testing.T) {
		purger, err := ResolvePurger(DriverQiniu, cfg, plainStore{})
		require.NoError(t, err)
		assert.IsType(t, &QiniuCDN{}, purger)
	})

	t.Run("测试复用存储后端", func(t *testing.T) {
		purger, err := ResolvePurger(DriverProvider, cfg, purgingStore{})
		require.NoError(t, err)
		assert.Equal(t, purgingStore{}, purger)

		purger, err = ResolvePurger(DriverProvider, cfg, plainStore{})
		require.NoError(t, err)
		assert.Nil(t, purger)
	})

	t.Run("测试缺少凭证", func(t *testing.T) {
		_, err := ResolvePurger(DriverQiniu, config.NewConfig(), plainStore{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.cdn.qiniu")
	})

	t.Run("测试未知驱动", func(t *testing.T) {
		_, err := ResolvePurger("akamai", cfg, plainStore{})
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})
}
