package storage

import "errors"

// 常见错误定义
var (
	// ErrUnknownProvider 不支持的存储后端
	ErrUnknownProvider = errors.New("storage: 不支持的存储后端")

	// ErrEmptyKey 对象键为空
	ErrEmptyKey = errors.New("storage: 对象键不能为空")

	// ErrInvalidKey 对象键非法，例如包含..路径段
	ErrInvalidKey = errors.New("storage: 非法的对象键")
)
