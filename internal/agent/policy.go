package agent

import (
	"sync/atomic"
)

// SearchPolicy 部署级的网页检索开关。一个进程一份，由管理接口修改，
// 所有请求读同一份。读写用原子操作，写后立即对在途请求可见。
type SearchPolicy struct {
	webEnabled atomic.Bool
}

// NewSearchPolicy 创建开关并设置初始值
func NewSearchPolicy(webEnabled bool) *SearchPolicy {
	p := &SearchPolicy{}
	p.webEnabled.Store(webEnabled)
	return p
}

// WebEnabled 返回网页检索是否开启
func (p *SearchPolicy) WebEnabled() bool {
	return p.webEnabled.Load()
}

// SetWebEnabled 修改开关
func (p *SearchPolicy) SetWebEnabled(enabled bool) {
	p.webEnabled.Store(enabled)
}
