// Package storage 保存收据等生成文件，后端可以是本地磁盘、S3 或 GCS。
package storage

import (
	"context"
	"fmt"
)

// ObjectStore 写入对象并返回可访问的位置
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Options 对应 STORAGE_* 配置
type Options struct {
	Driver             string
	LocalPath          string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
}

// New 根据驱动名创建存储
func New(ctx context.Context, opts Options) (ObjectStore, error) {
	switch opts.Driver {
	case "", "local":
		return NewLocalStorage(opts.LocalPath)
	case "s3":
		return NewS3Client(opts.S3Region, opts.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, opts.GCSProjectID, opts.GCSBucketName, opts.GCSCredentialsFile)
	}
	return nil, fmt.Errorf("未知的存储驱动: %s", opts.Driver)
}
