package di

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

// Container 依赖注入容器的封装
type Container struct {
	container *dig.Container
}

// New 创建一个新的DI容器
func New() *Container {
	return &Container{
		container: dig.New(),
	}
}

// Provide 向容器注册服务构造函数
func (c *Container) Provide(constructor interface{}, opts ...dig.ProvideOption) error {
	return c.container.Provide(constructor, opts...)
}

// ProvideValue 直接注册一个值到容器，值的静态类型即注册类型
func (c *Container) ProvideValue(value interface{}) error {
	valueType := reflect.TypeOf(value)
	if valueType == nil {
		return errors.New("di: 不能注册nil值")
	}

	constructor := reflect.MakeFunc(
		reflect.FuncOf(nil, []reflect.Type{valueType}, false),
		func(_ []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(value)}
		},
	).Interface()

	return c.container.Provide(constructor)
}

// Invoke 调用函数并注入其依赖
func (c *Container) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	return c.container.Invoke(function, opts...)
}

// Extract 从容器中取出target所指类型的实例
//
//	var gw *storage.Gateway
//	err := container.Extract(&gw)
func (c *Container) Extract(target interface{}) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr {
		return fmt.Errorf("di: target必须是指针, 实际为 %T", target)
	}
	if targetValue.IsNil() {
		return errors.New("di: target是nil指针")
	}

	elemType := targetValue.Elem().Type()
	fn := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{elemType}, nil, false),
		func(args []reflect.Value) []reflect.Value {
			targetValue.Elem().Set(args[0])
			return nil
		},
	)

	return c.container.Invoke(fn.Interface())
}

// Dig 获取内部的dig容器
func (c *Container) Dig() *dig.Container {
	return c.container
}
