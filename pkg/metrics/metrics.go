package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RouteTotal, ResponderDuration,
		LLMCallDuration, LLMCallFailTotal,
		RetrievalTotal, MemoryFlushTotal, SandboxRunTotal,
	)
}

// RouteTotal 路由总数（按意图）
var RouteTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_route_total",
		Help: "路由请求总数（按意图）",
	},
	[]string{"intent"}, // retrieve | explain | code | other
)

// ResponderDuration 响应器执行耗时（秒）
var ResponderDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chat_responder_duration_seconds",
		Help:    "响应器执行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"responder"},
)

// LLMCallDuration LLM 调用耗时（秒）
var LLMCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chat_llm_call_duration_seconds",
		Help:    "LLM 调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"purpose"}, // classify | generate | summarize
)

// LLMCallFailTotal LLM 调用失败总数
var LLMCallFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_llm_call_fail_total",
		Help: "LLM 调用失败总数",
	},
	[]string{"purpose"},
)

// RetrievalTotal 检索结果总数（按来源与结果）
var RetrievalTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_retrieval_total",
		Help: "检索次数（按来源与结果）",
	},
	[]string{"source", "outcome"}, // source: index | web; outcome: found | empty | unavailable
)

// MemoryFlushTotal 短期记忆转长期记忆次数
var MemoryFlushTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chat_memory_flush_total",
		Help: "短期记忆转入长期记忆的次数",
	},
)

// SandboxRunTotal 沙箱执行次数（按结果）
var SandboxRunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_sandbox_run_total",
		Help: "代码沙箱执行次数（按结果）",
	},
	[]string{"outcome"}, // ok | error | timeout
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
