package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// API Athena SDK中本客户端用到的方法子集（便于测试注入假实现）
type API interface {
	StartQueryExecution(ctx context.Context, params *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error)
}

// Client 异步查询客户端：提交 → 轮询直到终态 → 分页取回结果
// 查询执行实体只由远端引擎推进，这里只观测，不干预
type Client struct {
	api    API
	cfg    *config.AthenaConfig
	logger *logrus.Logger
}

func NewClient(api API, cfg *config.AthenaConfig, logger *logrus.Logger) *Client {
	return &Client{api: api, cfg: cfg, logger: logger}
}

// RunQuery 提交查询并等待完成，返回按表头键控的行记录
// 首页第一行是表头，只用于键名，不进入结果；FAILED/CANCELLED不返回任何部分结果
func (c *Client) RunQuery(ctx context.Context, query string) ([]map[string]string, error) {
	queryID, err := c.submit(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.waitForCompletion(ctx, queryID); err != nil {
		return nil, err
	}
	return c.fetchResults(ctx, queryID)
}

// Execute 提交DDL等无需取回结果集的查询，仅等待完成
func (c *Client) Execute(ctx context.Context, query string) error {
	queryID, err := c.submit(ctx, query)
	if err != nil {
		return err
	}
	return c.waitForCompletion(ctx, queryID)
}

// submit 提交查询。带uuid幂等token，避免重试造成重复执行
func (c *Client) submit(ctx context.Context, query string) (string, error) {
	out, err := c.api.StartQueryExecution(ctx, &awsathena.StartQueryExecutionInput{
		QueryString:        aws.String(query),
		ClientRequestToken: aws.String(uuid.NewString()),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(c.cfg.Database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(c.cfg.OutputLocation),
		},
	})
	if err != nil {
		return "", fmt.Errorf("提交查询失败: %w", err)
	}
	queryID := aws.ToString(out.QueryExecutionId)
	c.logger.WithField("query_id", queryID).Info("查询已提交")
	return queryID, nil
}

// waitForCompletion 固定间隔轮询执行状态直到终态
// 等待受WaitTimeout与ctx双重约束，不允许无界阻塞
func (c *Client) waitForCompletion(ctx context.Context, queryID string) error {
	start := time.Now()
	deadline := start.Add(c.cfg.WaitTimeout)

	for {
		out, err := c.api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(queryID),
		})
		if err != nil {
			return fmt.Errorf("获取查询状态失败: %w", err)
		}

		state := out.QueryExecution.Status.State
		switch state {
		case types.QueryExecutionStateSucceeded:
			observability.QueryDurationSeconds.Observe(time.Since(start).Seconds())
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			observability.QueryDurationSeconds.Observe(time.Since(start).Seconds())
			reason := ""
			if out.QueryExecution.Status.StateChangeReason != nil {
				reason = *out.QueryExecution.Status.StateChangeReason
			}
			return &model.QueryExecutionError{State: string(state), Reason: reason}
		}

		if time.Now().After(deadline) {
			c.logger.WithFields(logrus.Fields{
				"query_id": queryID,
				"state":    state,
			}).Error("查询等待超时")
			return fmt.Errorf("查询%s等待%s后仍未终态: %w", queryID, c.cfg.WaitTimeout, model.ErrQueryTimeout)
		}

		// 挂起等待一个轮询间隔，期间可被调用方取消
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// fetchResults 游标分页取回全部结果行并按表头键控
func (c *Client) fetchResults(ctx context.Context, queryID string) ([]map[string]string, error) {
	var (
		header    []string
		records   []map[string]string
		nextToken *string
		firstPage = true
	)

	for {
		out, err := c.api.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
			QueryExecutionId: aws.String(queryID),
			MaxResults:       aws.Int32(c.cfg.PageSize),
			NextToken:        nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("获取查询结果失败: %w", err)
		}

		rows := out.ResultSet.Rows
		if firstPage && len(rows) > 0 {
			// 首页第一行是列名
			header = rowValues(rows[0])
			rows = rows[1:]
		}
		firstPage = false

		for _, row := range rows {
			values := rowValues(row)
			record := make(map[string]string, len(header))
			for i, col := range header {
				if i < len(values) {
					record[col] = values[i]
				}
			}
			records = append(records, record)
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"query_id": queryID,
		"rows":     len(records),
	}).Info("查询结果取回完成")
	return records, nil
}

// rowValues 单元格统一转字符串，空值按空串处理（此边界不做类型转换）
func rowValues(row types.Row) []string {
	values := make([]string, len(row.Data))
	for i, d := range row.Data {
		values[i] = aws.ToString(d.VarCharValue)
	}
	return values
}
