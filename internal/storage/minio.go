package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"resume-coach-go/internal/config"
	appLogger "resume-coach-go/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResumeFile 归档上传的简历原件，对象名为file_id.pdf
	UploadResumeFile(ctx context.Context, fileID string, data []byte) (string, error)

	// GetResumeFile 按file_id取回简历原件
	GetResumeFile(ctx context.Context, fileID string) ([]byte, error)
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 归档简历原始PDF
type MinIO struct {
	client         *minio.Client
	cfg            *config.MinIOConfig
	originalBucket string
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO端点不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalBucket := cfg.OriginalsBucket
	if originalBucket == "" {
		originalBucket = "resume-originals" // 默认存储桶
	}

	m := &MinIO{
		client:         client,
		cfg:            cfg,
		originalBucket: originalBucket,
	}

	if err := m.ensureBucketExists(context.Background(), originalBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", originalBucket, err)
	}

	appLogger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", originalBucket).
		Msg("MinIO连接成功")
	return m, nil
}

// ensureBucketExists 存储桶不存在时创建
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	appLogger.Info().Str("bucket", bucketName).Msg("已创建MinIO存储桶")
	return nil
}

func resumeObjectName(fileID string) string {
	return fmt.Sprintf("%s.pdf", fileID)
}

// UploadResumeFile 归档简历原件，返回对象名
func (m *MinIO) UploadResumeFile(ctx context.Context, fileID string, data []byte) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file_id不能为空")
	}

	objectName := resumeObjectName(fileID)
	_, err := m.client.PutObject(ctx, m.originalBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("上传简历原件失败 (file_id=%s): %w", fileID, err)
	}

	appLogger.Debug().
		Str("file_id", fileID).
		Str("object", objectName).
		Int("size", len(data)).
		Msg("简历原件已归档")
	return objectName, nil
}

// GetResumeFile 取回简历原件内容
func (m *MinIO) GetResumeFile(ctx context.Context, fileID string) ([]byte, error) {
	objectName := resumeObjectName(fileID)
	obj, err := m.client.GetObject(ctx, m.originalBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取简历原件失败 (file_id=%s): %w", fileID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取简历原件失败 (file_id=%s): %w", fileID, err)
	}
	return data, nil
}
