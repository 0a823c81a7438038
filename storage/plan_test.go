package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareUpload(t *testing.T) {
	gen := fixedNameGenerator("1700000000000-id")

	t.Run("测试默认选项", func(t *testing.T) {
		plan, err := PrepareUpload([]byte("hello"), "photo.png", nil, gen)
		require.NoError(t, err)

		assert.Equal(t, "1700000000000-id.png", plan.Key)
		assert.Equal(t, plan.Key, plan.FileName)
		assert.Equal(t, "photo.png", plan.OriginalName)
		assert.Equal(t, "image/png", plan.ContentType)
		assert.True(t, plan.Public, "未指定时默认公共读")
		assert.Equal(t, int64(5), plan.Size)
		assert.Empty(t, plan.Metadata)
	})

	t.Run("测试完整选项", func(t *testing.T) {
		metadata := map[string]string{"owner": "alice"}
		plan, err := PrepareUpload([]byte{}, "report.pdf", &UploadOptions{
			FileName:    "q3",
			Directory:   "/docs//2024/",
			ContentType: "application/x-custom",
			IsPublic:    Bool(false),
			Metadata:    metadata,
		}, gen)
		require.NoError(t, err)

		assert.Equal(t, "docs/2024/q3.pdf", plan.Key)
		assert.Equal(t, "q3.pdf", plan.FileName)
		assert.Equal(t, "application/x-custom", plan.ContentType)
		assert.False(t, plan.Public)
		assert.Equal(t, int64(0), plan.Size)
		assert.Equal(t, metadata, plan.Metadata)

		metadata["owner"] = "bob"
		assert.Equal(t, "alice", plan.Metadata["owner"], "元数据应当被复制")
	})

	t.Run("测试显式公共读", func(t *testing.T) {
		plan, err := PrepareUpload(nil, "a.txt", &UploadOptions{IsPublic: Bool(true)}, gen)
		require.NoError(t, err)
		assert.True(t, plan.Public)
	})

	t.Run("测试非法目录", func(t *testing.T) {
		_, err := PrepareUpload(nil, "a.txt", &UploadOptions{Directory: "../secret"}, gen)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("测试生成上传结果", func(t *testing.T) {
		plan, err := PrepareUpload([]byte("abc"), "a.txt", &UploadOptions{Directory: "d"}, gen)
		require.NoError(t, err)

		result := plan.Result("https://example.com/d/1700000000000-id.txt", ProviderLocal)
		assert.Equal(t, &UploadResult{
			URL:          "https://example.com/d/1700000000000-id.txt",
			Key:          "d/1700000000000-id.txt",
			OriginalName: "a.txt",
			FileName:     "1700000000000-id.txt",
			Size:         3,
			ContentType:  "text/plain",
			Provider:     ProviderLocal,
		}, result)
	})
}

func TestUploadOptionsPublic(t *testing.T) {
	var opts *UploadOptions
	assert.True(t, opts.Public())
	assert.True(t, (&UploadOptions{}).Public())
	assert.True(t, (&UploadOptions{IsPublic: Bool(true)}).Public())
	assert.False(t, (&UploadOptions{IsPublic: Bool(false)}).Public())
}

func TestProviderValid(t *testing.T) {
	for _, p := range Providers() {
		assert.True(t, p.Valid(), "%s 应当是合法的存储后端", p)
	}
	assert.False(t, Provider("dropbox").Valid())
}
