package interfaces

import "context"

// BlobStore 快照对象存储（按键覆盖写，同键重写即幂等）
type BlobStore interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// QueryRunner 远程异步查询引擎客户端
type QueryRunner interface {
	// RunQuery 提交查询并等待完成，返回按表头键控的行记录（值一律为字符串）
	RunQuery(ctx context.Context, query string) ([]map[string]string, error)
	// Execute 提交DDL等无需取回结果集的查询，仅等待完成
	Execute(ctx context.Context, query string) error
}
