package model

import (
	"errors"
	"fmt"
)

// 请求侧错误（直接返回调用方，不重试）
var (
	ErrUnknownCategory   = errors.New("未知的类目标签")
	ErrUnsupportedSort   = errors.New("不支持的排序方式")
	ErrInvalidPriceRange = errors.New("价格区间非法")
	ErrInvalidMonth      = errors.New("月份格式非法（应为YYYY-MM）")
	ErrQueryTimeout      = errors.New("查询等待超时")
)

// ProviderError 单个商品平台调用失败
type ProviderError struct {
	Provider string // 平台标识：楽天/amazon
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("平台%s调用失败: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// QueryExecutionError 远程查询引擎以失败状态终止（FAILED/CANCELLED）
type QueryExecutionError struct {
	State  string // 终止状态
	Reason string // 引擎返回的失败原因（可为空）
}

func (e *QueryExecutionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("查询执行失败，状态: %s", e.State)
	}
	return fmt.Sprintf("查询执行失败，状态: %s，原因: %s", e.State, e.Reason)
}

// MalformedRecordError 平台原始记录缺少必要字段
// 不允许输出半填充记录（会污染下游的价格排序与积分计算），必须向上传播
type MalformedRecordError struct {
	Provider string // 平台标识
	Field    string // 缺失/非法的字段名
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("平台%s原始记录字段%s缺失或非法", e.Provider, e.Field)
}
