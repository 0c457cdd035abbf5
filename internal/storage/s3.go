package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// API S3 SDK中本存储层用到的方法子集（便于测试注入假实现）
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store 快照对象存储：每条快照记录一个JSON对象，同键重写即覆盖
type Store struct {
	api    API
	bucket string
	logger *logrus.Logger
}

func NewStore(api API, bucket string, logger *logrus.Logger) *Store {
	return &Store{api: api, bucket: bucket, logger: logger}
}

// PutJSON 序列化并覆盖写入指定键
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化对象失败: %w", err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("写入对象%s失败: %w", key, err)
	}
	return nil
}
