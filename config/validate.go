package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// 错误信息中使用配置键名而不是字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate 按validate标签校验配置结构体
func Validate(cfg interface{}) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Namespace(), getErrorMessage(e)))
	}
	return fmt.Errorf("config: 配置校验失败: %s", strings.Join(messages, "; "))
}

// getErrorMessage 获取错误信息
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "此字段是必需的"
	case "oneof":
		return "必须是以下值之一: " + e.Param()
	case "url":
		return "必须是有效的URL"
	default:
		return "验证失败于 '" + e.Tag() + "' 标签"
	}
}
