package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExport = "resume:export"
)

// ResumeExportPayload 描述一次纸面导出所需的最小信息；正文由 worker 重新读取。
type ResumeExportPayload struct {
	ResumeID      string `json:"resume_id"`
	OwnerID       uint   `json:"owner_id"`
	TemplateID    string `json:"template_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeExportTask 构造一个新的简历 PDF 导出任务。
func NewResumeExportTask(payload ResumeExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeResumeExport, data), nil
}

// ParseResumeExportPayload decodes the payload of a resume:export task.
func ParseResumeExportPayload(task *asynq.Task) (ResumeExportPayload, error) {
	var payload ResumeExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("unmarshal export payload: %w", err)
	}
	if payload.ResumeID == "" {
		return payload, fmt.Errorf("export payload missing resume id")
	}
	return payload, nil
}
