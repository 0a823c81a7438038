package storage

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedNameGenerator string

func (g fixedNameGenerator) NewName(ext string) string {
	return string(g) + ext
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name      string
		directory string
		fileName  string
		want      string
	}{
		{"无目录", "", "a.png", "a.png"},
		{"普通目录", "uploads", "a.png", "uploads/a.png"},
		{"首尾斜杠", "/uploads/", "a.png", "uploads/a.png"},
		{"连续斜杠", "//uploads///2024//", "a.png", "uploads/2024/a.png"},
		{"反斜杠", "uploads\\img", "a.png", "uploads/img/a.png"},
		{"只有斜杠", "///", "a.png", "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := BuildKey(tt.directory, tt.fileName)
			assert.Equal(t, tt.want, key)
			assert.NotContains(t, key, "//", "对象键不应包含连续斜杠")
			assert.False(t, strings.HasPrefix(key, "/"), "对象键不应以斜杠开头")
		})
	}
}

func TestFileName(t *testing.T) {
	t.Run("测试指定文件名", func(t *testing.T) {
		assert.Equal(t, "avatar.png", FileName("photo.png", "avatar", nil))
		assert.Equal(t, "avatar", FileName("README", "avatar", nil))
	})

	t.Run("测试生成文件名", func(t *testing.T) {
		assert.Equal(t, "generated.pdf", FileName("report.pdf", "", fixedNameGenerator("generated")))
	})

	t.Run("测试扩展名原样保留", func(t *testing.T) {
		assert.Equal(t, "x.tar.GZ", FileName("backup.tar.GZ", "x.tar", nil))
	})
}

func TestUUIDNameGenerator(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	gen := UUIDNameGenerator{Now: func() time.Time { return now }}

	name := gen.NewName(".jpg")
	pattern := regexp.MustCompile(`^1700000000123-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.jpg$`)
	assert.Regexp(t, pattern, name)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		seen[gen.NewName(".jpg")] = struct{}{}
	}
	assert.Len(t, seen, 1000, "同一毫秒内生成的文件名不应冲突")
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, ValidateKey(""), ErrEmptyKey)
	assert.ErrorIs(t, ValidateKey("///"), ErrEmptyKey)
	assert.ErrorIs(t, ValidateKey("../etc/passwd"), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKey("a/./b"), ErrInvalidKey)
	assert.NoError(t, ValidateKey("uploads/a..b.png"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.png", JoinURL("https://cdn.example.com/", "/a/b.png"))
	assert.Equal(t, "https://cdn.example.com/a/b.png", JoinURL("https://cdn.example.com", "a/b.png"))
	assert.Equal(t, "a/b.png", JoinURL("", "a/b.png"))
}

func TestInvalidationTargets(t *testing.T) {
	t.Run("测试单个对象", func(t *testing.T) {
		assert.Equal(t, "https://cdn.example.com/images/photo.jpg", ObjectTarget("https://cdn.example.com", "images/photo.jpg"))
		assert.Equal(t, "images/photo.jpg", ObjectTarget("", "images/photo.jpg"))
	})

	t.Run("测试目录前缀", func(t *testing.T) {
		assert.Equal(t, "https://cdn.example.com/uploads/", DirectoryTarget("https://cdn.example.com/", "/uploads/"))
		assert.Equal(t, "uploads/", DirectoryTarget("", "uploads"))
	})
}
