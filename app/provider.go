package app

import (
	"fmt"
	"sort"
)

// ServiceProvider 服务提供者接口
type ServiceProvider interface {
	// Register 向DI容器注册服务
	Register(app *Application) error

	// Boot 在服务注册后启动服务
	Boot(app *Application) error

	// Name 获取提供者名称
	Name() string

	// Priority 获取提供者优先级，数值越小优先级越高
	Priority() int
}

// ProviderManager 提供者管理器
//
// 提供者只在启动阶段由单个goroutine注册和启动，不做并发保护。
type ProviderManager struct {
	providers       []ServiceProvider // 注册的服务提供者
	bootedProviders map[string]bool   // 已启动的提供者
}

// NewProviderManager 创建提供者管理器
func NewProviderManager() *ProviderManager {
	return &ProviderManager{
		providers:       make([]ServiceProvider, 0),
		bootedProviders: make(map[string]bool),
	}
}

// Register 注册服务提供者，同名提供者只注册一次
func (pm *ProviderManager) Register(provider ServiceProvider) {
	for _, p := range pm.providers {
		if p.Name() == provider.Name() {
			return
		}
	}

	pm.providers = append(pm.providers, provider)
	sort.SliceStable(pm.providers, func(i, j int) bool {
		return pm.providers[i].Priority() < pm.providers[j].Priority()
	})
}

// BootProvider 注册并启动单个服务提供者
func (pm *ProviderManager) BootProvider(provider ServiceProvider, app *Application) error {
	if pm.bootedProviders[provider.Name()] {
		return nil
	}

	if err := provider.Register(app); err != nil {
		return fmt.Errorf("注册服务提供者 %s 失败: %w", provider.Name(), err)
	}
	if err := provider.Boot(app); err != nil {
		return fmt.Errorf("启动服务提供者 %s 失败: %w", provider.Name(), err)
	}

	pm.bootedProviders[provider.Name()] = true
	return nil
}

// BootAll 按优先级顺序启动所有注册的服务提供者
func (pm *ProviderManager) BootAll(app *Application) error {
	for _, provider := range pm.providers {
		if err := pm.BootProvider(provider, app); err != nil {
			return err
		}
	}
	return nil
}

// Providers 获取所有注册的服务提供者
func (pm *ProviderManager) Providers() []ServiceProvider {
	providers := make([]ServiceProvider, len(pm.providers))
	copy(providers, pm.providers)
	return providers
}

// IsBooted 检查服务提供者是否已启动
func (pm *ProviderManager) IsBooted(name string) bool {
	return pm.bootedProviders[name]
}

// BaseProvider 基础服务提供者，可嵌入自定义提供者
type BaseProvider struct {
	name     string
	priority int
}

// NewBaseProvider 创建基础服务提供者
func NewBaseProvider(name string, priority int) BaseProvider {
	return BaseProvider{
		name:     name,
		priority: priority,
	}
}

// Name 获取提供者名称
func (bp BaseProvider) Name() string {
	return bp.name
}

// Priority 获取提供者优先级
func (bp BaseProvider) Priority() int {
	return bp.priority
}

// Register 注册服务，默认不做任何事
func (bp BaseProvider) Register(app *Application) error {
	return nil
}

// Boot 启动服务，默认不做任何事
func (bp BaseProvider) Boot(app *Application) error {
	return nil
}
