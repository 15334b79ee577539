package common

import (
	"errors"
	"fmt"
)

// AppError 应用级错误结构，Code 用于在触发面做分类处理
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装底层错误
func WrapError(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{Code: code, Message: message}
}

// HasCode 判断错误链上是否有指定错误码
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// 错误码常量
const (
	ErrCodeGitHubAPI    = "GITHUB_API_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeAIProcessing = "AI_PROCESSING_ERROR"
	ErrCodeNotification = "NOTIFICATION_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRejected     = "GENERATION_REJECTED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrNoFreshAnalysis 缓存未命中（不存在或已过期，调用方不区分这两种情况）
var ErrNoFreshAnalysis = NewError(ErrCodeNotFound, "no fresh analysis for subject")
