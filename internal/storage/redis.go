package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-coach-go/internal/config"
	"resume-coach-go/internal/constants"
	appLogger "resume-coach-go/internal/logger"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 键不存在，封装底层的redis.Nil
var ErrNotFound = redis.Nil

// Redis 快速缓存层: 分析结果JSON和会话用户名的读穿缓存
// MySQL是权威存储，这里只加速热路径
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("Redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接检查失败: %w", err)
	}

	appLogger.Info().Str("address", cfg.Address).Msg("Redis连接成功")
	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Ping 健康检查
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) analysisCacheTTL() time.Duration {
	return time.Duration(r.cfg.AnalysisCacheExpireHours) * time.Hour
}

func (r *Redis) sessionCacheTTL() time.Duration {
	return time.Duration(r.cfg.SessionCacheExpireHours) * time.Hour
}

// CacheAnalysisJSON 缓存分析结果JSON，键为简历内容哈希
func (r *Redis) CacheAnalysisJSON(ctx context.Context, resumeHash string, analysisJSON []byte) error {
	key := fmt.Sprintf(constants.KeyAnalysisCache, resumeHash)
	if err := r.Client.Set(ctx, key, analysisJSON, r.analysisCacheTTL()).Err(); err != nil {
		return fmt.Errorf("缓存分析结果失败 (hash=%s): %w", resumeHash, err)
	}
	return nil
}

// GetCachedAnalysisJSON 读取缓存的分析结果，未命中时found为false
func (r *Redis) GetCachedAnalysisJSON(ctx context.Context, resumeHash string) (analysisJSON []byte, found bool, err error) {
	key := fmt.Sprintf(constants.KeyAnalysisCache, resumeHash)
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取分析缓存失败 (hash=%s): %w", resumeHash, err)
	}
	return data, true, nil
}

// CacheSessionUserName 缓存会话用户名
func (r *Redis) CacheSessionUserName(ctx context.Context, fileID, userName string) error {
	key := fmt.Sprintf(constants.KeySessionUserName, fileID)
	if err := r.Client.Set(ctx, key, userName, r.sessionCacheTTL()).Err(); err != nil {
		return fmt.Errorf("缓存会话用户名失败 (file_id=%s): %w", fileID, err)
	}
	return nil
}

// GetCachedSessionUserName 读取缓存的会话用户名，未命中时found为false
func (r *Redis) GetCachedSessionUserName(ctx context.Context, fileID string) (userName string, found bool, err error) {
	key := fmt.Sprintf(constants.KeySessionUserName, fileID)
	name, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("读取会话缓存失败 (file_id=%s): %w", fileID, err)
	}
	return name, true, nil
}
