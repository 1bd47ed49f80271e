package storage

import (
	"context"
	"fmt"

	"resume-coach-go/internal/config"
	appLogger "resume-coach-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖
// Qdrant和MySQL是核心路径的必需组件，其余按配置可选
type Storage struct {
	// 向量数据库
	Qdrant *Qdrant

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis

	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error

	// 初始化Qdrant，向量检索是核心能力，失败直接返回
	storage.Qdrant, err = NewQdrant(&cfg.Qdrant)
	if err != nil {
		return nil, fmt.Errorf("初始化Qdrant失败: %w", err)
	}

	// 初始化MySQL，会话与分析结果的权威存储，未配置或失败直接返回
	if cfg.MySQL.Host == "" {
		return nil, fmt.Errorf("缺少必需配置: mysql.host")
	}
	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	// 初始化Redis（如果配置了），失败降级到MySQL直读
	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			appLogger.Warn().Err(err).Msg("初始化Redis失败，缓存层不可用")
			storage.Redis = nil
		}
	} else {
		appLogger.Info().Msg("Redis未配置，跳过初始化")
	}

	// 初始化MinIO（如果配置了），失败仅影响原件归档
	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			appLogger.Warn().Err(err).Msg("初始化MinIO失败，简历原件归档不可用")
			storage.MinIO = nil
		}
	} else {
		appLogger.Info().Msg("MinIO未配置，跳过初始化")
	}

	// 初始化RabbitMQ（如果配置了），事件发布是尽力而为
	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			appLogger.Warn().Err(err).Msg("初始化RabbitMQ失败，事件发布不可用")
			storage.RabbitMQ = nil
		}
	} else {
		appLogger.Info().Msg("RabbitMQ未配置，跳过初始化")
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
}
