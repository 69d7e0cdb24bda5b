package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/config"
	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/streams"
)

// VitalsIngest 订阅可穿戴设备主题，将体征消息转投到采集 Stream。
// 持久化与缓存刷新由 Stream 消费端统一处理，这里只做解析与校验。
type VitalsIngest struct {
	config      config.MQTTConfig
	mqttClient  *Client
	redisClient *redis.Client
	stream      string
	logger      *zap.Logger
}

// NewVitalsIngest 创建 MQTT 体征接入
func NewVitalsIngest(
	cfg config.MQTTConfig,
	mqttClient *Client,
	redisClient *redis.Client,
	stream string,
	logger *zap.Logger,
) *VitalsIngest {
	return &VitalsIngest{
		config:      cfg,
		mqttClient:  mqttClient,
		redisClient: redisClient,
		stream:      stream,
		logger:      logger,
	}
}

// Start 订阅主题，阻塞直到 ctx 取消
func (v *VitalsIngest) Start(ctx context.Context) error {
	if v.config.Topic == "" {
		return fmt.Errorf("vitals MQTT topic not configured")
	}

	if err := v.mqttClient.Subscribe(v.config.Topic, 1, v.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to vitals topic: %w", err)
	}

	v.logger.Info("MQTT vitals ingest started",
		zap.String("topic", v.config.Topic),
		zap.String("stream", v.stream),
	)

	<-ctx.Done()
	return nil
}

// Stop 取消订阅
func (v *VitalsIngest) Stop(ctx context.Context) error {
	if v.config.Topic != "" {
		if err := v.mqttClient.Unsubscribe(v.config.Topic); err != nil {
			v.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}
	v.logger.Info("MQTT vitals ingest stopped")
	return nil
}

// handleMessage 处理单条 MQTT 消息：支持单条记录或记录数组
func (v *VitalsIngest) handleMessage(topic string, payload []byte) error {
	v.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	records, err := decodePayload(payload)
	if err != nil {
		v.logger.Error("Failed to unmarshal vitals MQTT message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return err
	}

	ctx := context.Background()
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			v.logger.Warn("Rejected invalid vital record from MQTT",
				zap.String("user_id", rec.UserID),
				zap.Error(err),
			)
			continue
		}
		if _, err := streams.PublishJSON(ctx, v.redisClient, v.stream, rec); err != nil {
			v.logger.Error("Failed to publish vital record to ingest stream",
				zap.String("user_id", rec.UserID),
				zap.Error(err),
			)
			// 继续处理下一条记录，不中断
		}
	}
	return nil
}

// decodePayload 兼容两种报文：单对象或对象数组
func decodePayload(payload []byte) ([]domain.VitalRecord, error) {
	var records []domain.VitalRecord
	if err := json.Unmarshal(payload, &records); err == nil {
		return records, nil
	}

	var rec domain.VitalRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vitals payload: %w", err)
	}
	return []domain.VitalRecord{rec}, nil
}
