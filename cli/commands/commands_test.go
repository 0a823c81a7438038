package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/assetgate/cli"
	"github.com/zzliekkas/assetgate/storage"
)

type cliFixture struct {
	configFile string
	root       string
}

func newCLIFixture(t *testing.T, extra string) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "data")
	content := fmt.Sprintf(`
log:
  level: error
storage:
  default: local
  local:
    root: %s
    base_url: https://assets.example.com
    signing_key: secret
%s`, root, extra)

	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return &cliFixture{configFile: file, root: root}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := cli.NewAssetGateCLI()
	RegisterCommands(app)

	var out, errOut bytes.Buffer
	app.SetOutput(&out, &errOut)
	err := app.Execute(append(args, "--config", f.configFile))
	return out.String(), err
}

func TestObjectCommands(t *testing.T) {
	f := newCLIFixture(t, "")

	file := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(file, []byte("jpeg-bytes"), 0644))

	out, err := f.run(t, "upload", file, "--dir", "images", "--meta", "owner=alice", "--json")
	require.NoError(t, err)

	var result storage.UploadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, strings.HasPrefix(result.Key, "images/"))
	assert.Equal(t, "photo.jpg", result.OriginalName)
	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, int64(10), result.Size)
	assert.Equal(t, storage.ProviderLocal, result.Provider)
	assert.FileExists(t, filepath.Join(f.root, result.Key))

	t.Run("测试存在性检查", func(t *testing.T) {
		out, err := f.run(t, "exists", result.Key)
		require.NoError(t, err)
		assert.Contains(t, out, "存在: "+result.Key)

		out, err = f.run(t, "exists", "images/missing.jpg")
		require.NoError(t, err)
		assert.Contains(t, out, "不存在")
	})

	t.Run("测试获取URL", func(t *testing.T) {
		out, err := f.run(t, "url", result.Key)
		require.NoError(t, err)
		assert.Equal(t, "https://assets.example.com/"+result.Key+"\n", out)

		out, err = f.run(t, "url", result.Key, "--expires", "15m")
		require.NoError(t, err)
		assert.Contains(t, out, "expires=")
		assert.Contains(t, out, "signature=")
	})

	t.Run("测试删除", func(t *testing.T) {
		_, err := f.run(t, "delete", result.Key)
		require.NoError(t, err)
		assert.NoFileExists(t, filepath.Join(f.root, result.Key))

		_, err = f.run(t, "delete", result.Key)
		assert.NoError(t, err, "重复删除应当成功")
	})
}

func TestUploadCommandOptions(t *testing.T) {
	f := newCLIFixture(t, "")

	file := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF"), 0644))

	out, err := f.run(t, "upload", file, "--name", "q3", "--private")
	require.NoError(t, err)
	assert.Contains(t, out, "键: q3.pdf")
	assert.Contains(t, out, "application/pdf")

	info, err := os.Stat(filepath.Join(f.root, "q3.pdf"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = f.run(t, "upload", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestPurgeCommands(t *testing.T) {
	t.Run("测试未配置刷新驱动", func(t *testing.T) {
		f := newCLIFixture(t, "")
		_, err := f.run(t, "purge", "images/a.jpg")
		assert.ErrorIs(t, err, ErrNoInvalidator)
	})

	t.Run("测试Cloudflare刷新", func(t *testing.T) {
		var requests atomic.Int32
		var body atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			body.Store(buf.String())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"errors":[],"messages":[],"result":{"id":"1"}}`))
		}))
		defer server.Close()

		f := newCLIFixture(t, fmt.Sprintf(`  cdn:
    driver: cloudflare
    cloudflare:
      zone_id: zone
      api_token: token
      domain: https://cdn.example.com
      base_url: %s
      max_retries: 0
`, server.URL))

		out, err := f.run(t, "purge", "images/a.jpg")
		require.NoError(t, err)
		assert.Contains(t, out, "已刷新: images/a.jpg")
		assert.Contains(t, body.Load(), "https://cdn.example.com/images/a.jpg")

		_, err = f.run(t, "purge-dir", "images")
		require.NoError(t, err)
		assert.Contains(t, body.Load(), `"prefixes":["https://cdn.example.com/images/"]`)
		assert.Equal(t, int32(2), requests.Load())
	})

	t.Run("测试刷新失败", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":1012,"message":"denied"}],"messages":[],"result":null}`))
		}))
		defer server.Close()

		f := newCLIFixture(t, fmt.Sprintf(`  cdn:
    driver: cloudflare
    cloudflare:
      zone_id: zone
      api_token: token
      base_url: %s
      max_retries: 0
`, server.URL))

		_, err := f.run(t, "purge", "images/a.jpg")
		assert.ErrorIs(t, err, ErrPurgeFailed)
	})
}

func TestProvidersCommand(t *testing.T) {
	app := cli.NewAssetGateCLI()
	RegisterCommands(app)

	var out bytes.Buffer
	app.SetOutput(&out, &out)
	require.NoError(t, app.Execute([]string{"providers"}))

	assert.Contains(t, out.String(), "aliyun-oss")
	assert.Contains(t, out.String(), "storage.oss")
	assert.Contains(t, out.String(), "storage.local")
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), len(storage.Providers()))
}

func TestInvalidConfig(t *testing.T) {
	f := newCLIFixture(t, "")
	require.NoError(t, os.WriteFile(f.configFile, []byte("storage:\n  default: dropbox\n"), 0644))

	_, err := f.run(t, "exists", "a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.default")
}

func TestConfigCommand(t *testing.T) {
	f := newCLIFixture(t, "")

	t.Run("测试获取配置", func(t *testing.T) {
		out, err := f.run(t, "config", "get", "storage.default")
		require.NoError(t, err)
		assert.Equal(t, "local\n", out)

		_, err = f.run(t, "config", "get", "storage.unknown")
		assert.Error(t, err)
	})

	t.Run("测试列出配置", func(t *testing.T) {
		out, err := f.run(t, "config", "list", "--filter", "storage.local")
		require.NoError(t, err)
		assert.Contains(t, out, "storage.local.base_url = https://assets.example.com")
		assert.Contains(t, out, "storage.local.signing_key = ******")
		assert.NotContains(t, out, "secret")
		assert.NotContains(t, out, "log.level")

		out, err = f.run(t, "config", "list", "--filter", "signing_key", "--hide-sensitive=false")
		require.NoError(t, err)
		assert.Contains(t, out, "storage.local.signing_key = secret")
	})
}

func TestIsSensitiveKey(t *testing.T) {
	assert.True(t, isSensitiveKey("storage.cdn.cloudflare.api_token"))
	assert.True(t, isSensitiveKey("storage.oss.access_key_secret"))
	assert.True(t, isSensitiveKey("storage.cos.SecretID"))
	assert.False(t, isSensitiveKey("storage.minio.endpoint"))
}
