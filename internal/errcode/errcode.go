package errcode

// 错误码约定（用于导出完成通知）：
// - 0：无错误
// - 4xxx：可恢复/告警类（PDF 已生成，但文字校验与预览不一致）
// - 5xxx：系统错误（导出失败）
const (
	OK              = 0
	ContentMismatch = 4004
	SystemError     = 5000
)
