package service

import (
	"fmt"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/auth"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
)

// ValidationError 表示请求缺少必填字段或字段格式错误。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数 %s 无效: %s", e.Field, e.Message)
}

// PersistenceError 表示记录存储失败。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("记录存储操作 %s 失败: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UploadFailure 与 AuthenticationError 由各自的包定义，这里重新导出以便调用方统一匹配。
type (
	UploadFailure       = storage.UploadFailure
	AuthenticationError = auth.AuthenticationError
)
