package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"resume-coach-go/internal/config"
	"resume-coach-go/internal/constants"
	appLogger "resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher 简历处理事件发布接口
type EventPublisher interface {
	// PublishResumeEvent 发布简历事件到topic exchange
	PublishResumeEvent(ctx context.Context, event types.ResumeEvent) error
}

// 确保RabbitMQ实现了EventPublisher接口
var _ EventPublisher = (*RabbitMQ)(nil)

// RabbitMQ 发布简历处理事件，供下游系统订阅
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	exchangeMap  map[string]bool // 记录已声明的exchange
	publishMutex sync.Mutex      // 保护发布操作
	cfg          *config.RabbitMQConfig
}

// NewRabbitMQ 创建RabbitMQ客户端并声明事件exchange
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		cfg:         cfg,
	}

	// 初始化channel池
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, errPool := conn.Channel()
			if errPool != nil {
				appLogger.Error().Err(errPool).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	// 测试通道并声明事件exchange
	if err := mq.EnsureExchange(cfg.EventsExchange, "topic", true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明事件exchange失败: %w", err)
	}

	appLogger.Info().
		Str("exchange", cfg.EventsExchange).
		Msg("RabbitMQ连接成功")
	return mq, nil
}

// 获取可用通道
func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			appLogger.Error().Err(err).Msg("创建新RabbitMQ通道失败")
			return nil
		}
		return newCh
	}
	return ch.(*amqp.Channel)
}

// 归还通道到池
func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在，重复声明会被跳过
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}

	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(
		exchangeName, // exchange名
		exchangeType, // 类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部
		false,        // 不等待
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	return nil
}

// routingKeyFor 按事件类型选择路由键，与配置的路由键取值无关
func (r *RabbitMQ) routingKeyFor(eventType string) string {
	if eventType == constants.EventResumeRejected {
		return r.cfg.RejectedRoutingKey
	}
	return r.cfg.AnalyzedRoutingKey
}

// PublishResumeEvent 发布简历事件，路由键由事件类型决定
func (r *RabbitMQ) PublishResumeEvent(ctx context.Context, event types.ResumeEvent) error {
	routingKey := r.routingKeyFor(event.Event)

	timeout := config.GetDuration(r.cfg.ConfirmTimeout, 5*time.Second)
	publishCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.PublishJSON(publishCtx, r.cfg.EventsExchange, routingKey, event, true); err != nil {
		return fmt.Errorf("发布简历事件失败 (event=%s, file_id=%s): %w", event.Event, event.FileID, err)
	}

	appLogger.Debug().
		Str("event", event.Event).
		Str("file_id", event.FileID).
		Str("routing_key", routingKey).
		Msg("简历事件已发布")
	return nil
}

// PublishMessage 发布消息到exchange
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	var deliveryMode uint8 = 1 // 非持久化
	if persistent {
		deliveryMode = 2 // 持久化
	}

	return ch.PublishWithContext(
		ctx,
		exchangeName, // exchange名
		routingKey,   // 路由键
		false,        // 强制
		false,        // 立即
		amqp.Publishing{
			DeliveryMode: deliveryMode,
			ContentType:  "application/json",
			Body:         message,
			Timestamp:    time.Now(),
		},
	)
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}
