// Package consumer 采集管道的消费端：从 Redis Stream 读取体征消息，
// 校验后写入仓储并刷新最新快照缓存。
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/config"
	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/repository"
	"github.com/TumainiC/Medical-app/internal/store"
	"github.com/TumainiC/Medical-app/internal/streams"
)

// snapshotTTL 最新快照缓存的过期时间
const snapshotTTL = 24 * time.Hour

// VitalsConsumer 体征采集流消费者
type VitalsConsumer struct {
	config      config.IngestConfig
	redisClient *redis.Client
	vitalsRepo  repository.VitalsRepository
	kv          store.KV
	logger      *zap.Logger
}

// NewVitalsConsumer 创建采集流消费者
func NewVitalsConsumer(
	cfg config.IngestConfig,
	redisClient *redis.Client,
	vitalsRepo repository.VitalsRepository,
	kv store.KV,
	logger *zap.Logger,
) *VitalsConsumer {
	return &VitalsConsumer{
		config:      cfg,
		redisClient: redisClient,
		vitalsRepo:  vitalsRepo,
		kv:          kv,
		logger:      logger,
	}
}

// Start 启动消费循环，阻塞直到 ctx 取消
func (c *VitalsConsumer) Start(ctx context.Context) error {
	if err := streams.EnsureGroup(ctx, c.redisClient, c.config.Stream, c.config.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", c.config.Stream, err)
	}

	c.logger.Info("Vitals stream consumer started",
		zap.String("stream", c.config.Stream),
		zap.String("consumer_group", c.config.ConsumerGroup),
		zap.String("consumer_name", c.config.ConsumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume vitals stream",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)
				// 指数退避后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce 读取一批消息并逐条处理
func (c *VitalsConsumer) consumeOnce(ctx context.Context) error {
	messages, err := streams.ReadGroup(
		ctx,
		c.redisClient,
		c.config.Stream,
		c.config.ConsumerGroup,
		c.config.ConsumerName,
		c.config.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.config.Stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process vitals message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 坏消息也 Ack，避免重复投递阻塞消费组
		}
		if err := streams.Ack(ctx, c.redisClient, c.config.Stream, c.config.ConsumerGroup, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return nil
}

// processMessage 解析、校验并持久化单条体征消息
func (c *VitalsConsumer) processMessage(ctx context.Context, msg streams.Message) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}

	var rec domain.VitalRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("failed to unmarshal vital record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid vital record: %w", err)
	}

	if err := c.vitalsRepo.Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist vital record: %w", err)
	}

	// 刷新最新快照缓存（失败不影响主流程）
	if err := c.kv.Set(ctx, store.LatestSnapshotKey(rec.UserID), raw, snapshotTTL); err != nil {
		c.logger.Warn("Failed to refresh latest snapshot",
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
	}

	c.logger.Debug("Ingested vital record",
		zap.String("user_id", rec.UserID),
		zap.Time("timestamp", rec.Timestamp),
	)
	return nil
}
