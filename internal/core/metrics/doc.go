// Package metrics 提供 swarm 的 Prometheus 指标
//
// Tracer 记录：
//   - 拨号结果与耗时
//   - 连接缓存命中（muxed / raw / miss）
//   - 多路复用升级结果（按编解码）
//   - identify 结果
//   - 按协议与方向统计的流字节数
//
// 所有方法对 nil 接收者安全，未启用指标时 Swarm 持有 nil Tracer。
//
// # 使用
//
//	tracer, err := metrics.NewTracer(prometheus.NewRegistry())
//	s := swarm.NewSwarm(local, swarm.WithTracer(tracer))
//
//	http.Handle("/metrics", tracer.Handler())
package metrics
