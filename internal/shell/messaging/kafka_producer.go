package messaging

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/config"
)

// KafkaProducer is a generic Kafka message producer
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer creates a new Kafka producer from configuration
func NewKafkaProducer(cfg config.KafkaConfig) (*KafkaProducer, error) {
	logrus.Debugf("[DEBUG] KafkaProducer - initializing with brokers: %v, topic: %s", cfg.Brokers, cfg.Topic)

	saramaConfig, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		logrus.Debugf("[DEBUG] KafkaProducer - failed to create producer: %v", err)
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logrus.Debugf("[DEBUG] KafkaProducer - producer created successfully")
	return NewKafkaProducerWithClient(producer, cfg.Topic), nil
}

// NewKafkaProducerWithClient wraps an existing sarama producer
func NewKafkaProducerWithClient(producer sarama.SyncProducer, topic string) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
	}
}

func newSaramaConfig(cfg config.KafkaConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll // Wait for all replicas to acknowledge
	saramaConfig.Producer.Retry.Max = cfg.Retries
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	if cfg.Timeout > 0 {
		saramaConfig.Net.DialTimeout = cfg.Timeout
		saramaConfig.Producer.Timeout = cfg.Timeout
	}

	if cfg.SASL.Enabled {
		// SCRAM needs a client generator sarama does not ship
		if cfg.SASL.Mechanism != sarama.SASLTypePlaintext {
			return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASL.Mechanism)
		}
		saramaConfig.Net.SASL.Enable = true
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		saramaConfig.Net.SASL.User = cfg.SASL.Username
		saramaConfig.Net.SASL.Password = cfg.SASL.Password
	}

	return saramaConfig, nil
}

// SendMessage sends a message to Kafka with the specified key, value, and headers
func (k *KafkaProducer) SendMessage(key string, value []byte, headers map[string]string) error {
	logrus.Debugf("[DEBUG] KafkaProducer - sending message with key: %s", key)

	kafkaHeaders := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	kafkaMessage := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(value),
		Headers:   kafkaHeaders,
		Timestamp: time.Now(),
	}

	partition, offset, err := k.producer.SendMessage(kafkaMessage)
	if err != nil {
		logrus.Debugf("[DEBUG] KafkaProducer - failed to send message: %v", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	logrus.Debugf("[DEBUG] KafkaProducer - message sent to partition %d at offset %d", partition, offset)
	return nil
}

// Close closes the Kafka producer
func (k *KafkaProducer) Close() error {
	logrus.Debugf("[DEBUG] KafkaProducer - closing producer")
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
