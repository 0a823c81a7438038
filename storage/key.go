package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NameGenerator 生成不冲突的文件名
type NameGenerator interface {
	// NewName 生成带扩展名的文件名，ext包含前导点或为空
	NewName(ext string) string
}

// UUIDNameGenerator 基于时间戳和UUID生成文件名
type UUIDNameGenerator struct {
	// Now 时钟函数，为空时使用time.Now
	Now func() time.Time
}

// NewName 实现NameGenerator接口，格式为 {毫秒时间戳}-{uuid}{ext}
func (g UUIDNameGenerator) NewName(ext string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return fmt.Sprintf("%d-%s%s", now().UnixMilli(), uuid.NewString(), ext)
}

// DefaultNameGenerator 默认文件名生成器
var DefaultNameGenerator NameGenerator = UUIDNameGenerator{}

// FileName 生成最终文件名
//
// stem不为空时使用 stem+原始扩展名，否则由gen生成唯一文件名。
func FileName(originalName, stem string, gen NameGenerator) string {
	ext := filepath.Ext(originalName)
	if stem != "" {
		return stem + ext
	}
	if gen == nil {
		gen = DefaultNameGenerator
	}
	return gen.NewName(ext)
}

// NormalizeKey 规范化对象键：统一分隔符、去掉首尾斜杠并合并连续斜杠
func NormalizeKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	segments := strings.Split(key, "/")
	parts := segments[:0]
	for _, segment := range segments {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, "/")
}

// BuildKey 组合对象键 {directory}/{fileName}，目录为空时只返回文件名
func BuildKey(directory, fileName string) string {
	directory = NormalizeKey(directory)
	fileName = NormalizeKey(fileName)
	if directory == "" {
		return fileName
	}
	return directory + "/" + fileName
}

// ValidateKey 校验调用方传入的对象键
func ValidateKey(key string) error {
	if NormalizeKey(key) == "" {
		return ErrEmptyKey
	}
	for _, segment := range strings.Split(NormalizeKey(key), "/") {
		if segment == ".." || segment == "." {
			return ErrInvalidKey
		}
	}
	return nil
}

// JoinURL 拼接 {base}/{key}，保证两者之间只有一个斜杠
func JoinURL(base, key string) string {
	key = strings.TrimPrefix(key, "/")
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + key
}

// ObjectTarget 计算单个对象的刷新目标，未配置域名时返回裸键
func ObjectTarget(domain, key string) string {
	return JoinURL(domain, NormalizeKey(key))
}

// DirectoryTarget 计算目录前缀的刷新目标，结尾的斜杠避免误刷同名前缀的兄弟目录
func DirectoryTarget(domain, directory string) string {
	return JoinURL(domain, NormalizeKey(directory)) + "/"
}
