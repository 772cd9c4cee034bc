package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/z-wentao/subhashit/pkg/models"
)

// RabbitMQOptions RabbitMQ 队列参数
type RabbitMQOptions struct {
	URL       string
	QueueName string
	Prefetch  int           // 一般等于 Worker 数量
	TTL       time.Duration // 超过会话有效期的任务由 Broker 丢弃，0 表示不过期
}

// RabbitMQQueue RabbitMQ 翻译任务队列
// 发布和消费使用两条独立连接，所有 Worker 共享一个消费者
type RabbitMQQueue struct {
	opts      RabbitMQOptions
	closed    chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	publishConn    *amqp.Connection
	publishChannel *amqp.Channel
	publishMutex   sync.Mutex

	consumeConn    *amqp.Connection
	consumeChannel *amqp.Channel
	deliveries     <-chan amqp.Delivery

	// amqp.Channel 不是并发安全的
	ackMutex sync.Mutex
}

// NewRabbitMQQueue 创建 RabbitMQ 队列
func NewRabbitMQQueue(opts RabbitMQOptions) (*RabbitMQQueue, error) {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	rq := &RabbitMQQueue{
		opts:   opts,
		closed: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := rq.setupPublisher(); err != nil {
		cancel()
		return nil, fmt.Errorf("初始化发布者失败: %w", err)
	}

	if err := rq.setupConsumer(); err != nil {
		cancel()
		rq.closePublisher()
		return nil, fmt.Errorf("初始化消费者失败: %w", err)
	}

	log.Printf("✓ RabbitMQ 队列初始化成功 (队列: %s)", opts.QueueName)
	return rq, nil
}

// dialChannel 建立连接并声明持久化队列
func (rq *RabbitMQQueue) dialChannel() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(rq.opts.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("连接失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("创建 RabbitMQ Channel 失败: %w", err)
	}

	_, err = ch.QueueDeclare(
		rq.opts.QueueName,      // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		queueArgs(rq.opts.TTL), // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("声明队列失败: %w", err)
	}
	return conn, ch, nil
}

func (rq *RabbitMQQueue) setupPublisher() error {
	conn, ch, err := rq.dialChannel()
	if err != nil {
		return err
	}
	rq.publishConn = conn
	rq.publishChannel = ch
	return nil
}

func (rq *RabbitMQQueue) setupConsumer() error {
	conn, ch, err := rq.dialChannel()
	if err != nil {
		return err
	}

	if err := ch.Qos(rq.opts.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("设置 QoS 失败: %w", err)
	}

	deliveries, err := ch.Consume(
		rq.opts.QueueName,   // queue
		"subhashit-workers", // consumer tag
		false,               // autoAck: 手动确认
		false,               // exclusive
		false,               // noLocal
		false,               // noWait
		nil,                 // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("启动消费失败: %w", err)
	}

	rq.consumeConn = conn
	rq.consumeChannel = ch
	rq.deliveries = deliveries

	log.Printf("✓ RabbitMQ 消费者已启动 (prefetchCount=%d)", rq.opts.Prefetch)
	return nil
}

// Enqueue 将任务加入队列
func (rq *RabbitMQQueue) Enqueue(job *models.TranslationJob) error {
	msg, err := encodeJob(job)
	if err != nil {
		return err
	}

	rq.publishMutex.Lock()
	defer rq.publishMutex.Unlock()

	ctx, cancel := context.WithTimeout(rq.ctx, 5*time.Second)
	defer cancel()

	err = rq.publishChannel.PublishWithContext(
		ctx,
		"",                // 默认 exchange
		rq.opts.QueueName, // routing key
		false,             // mandatory
		false,             // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

// Dequeue 从队列取出任务（阻塞）
func (rq *RabbitMQQueue) Dequeue(ctx context.Context) (*models.TranslationJob, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-rq.closed:
		return nil, ErrClosed
	case delivery, ok := <-rq.deliveries:
		if !ok {
			return nil, fmt.Errorf("消费通道已关闭: %w", ErrClosed)
		}

		job, err := decodeJob(delivery)
		if err != nil {
			// 坏消息直接丢弃，不重新入队
			rq.nackInternal(delivery.DeliveryTag, false)
			return nil, err
		}
		return job, nil
	}
}

// encodeJob 任务体为 JSON；会话、序号、类型同时写入消息属性，便于在管理界面中排查
func encodeJob(job *models.TranslationJob) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("序列化任务失败: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     job.JobID,
		CorrelationId: job.SessionID,
		Type:          string(job.Kind),
		Headers:       amqp.Table{"seq": int64(job.Seq)},
		Body:          body,
		Timestamp:     time.Now(),
	}, nil
}

// decodeJob 校验消息属性与消息体一致
func decodeJob(d amqp.Delivery) (*models.TranslationJob, error) {
	if d.ContentType != "" && d.ContentType != "application/json" {
		return nil, fmt.Errorf("不支持的消息类型: %s", d.ContentType)
	}

	var job models.TranslationJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		return nil, fmt.Errorf("反序列化任务失败: %w", err)
	}
	if job.JobID == "" {
		job.JobID = d.MessageId
	}
	if job.SessionID == "" {
		job.SessionID = d.CorrelationId
	}
	if d.MessageId != "" && d.MessageId != job.JobID {
		return nil, fmt.Errorf("消息 ID %s 与任务 %s 不一致", d.MessageId, job.JobID)
	}
	if job.JobID == "" || job.SessionID == "" {
		return nil, fmt.Errorf("任务缺少 job_id 或 session_id")
	}

	job.DeliveryTag = d.DeliveryTag
	job.RabbitMQDelivery = &d
	return &job, nil
}

func queueArgs(ttl time.Duration) amqp.Table {
	if ttl <= 0 {
		return nil
	}
	return amqp.Table{"x-message-ttl": ttl.Milliseconds()}
}

// Ack 确认消息
func (rq *RabbitMQQueue) Ack(job *models.TranslationJob) error {
	if job.RabbitMQDelivery == nil {
		return nil
	}
	rq.ackMutex.Lock()
	defer rq.ackMutex.Unlock()
	return rq.consumeChannel.Ack(job.DeliveryTag, false)
}

// Nack 拒绝消息
func (rq *RabbitMQQueue) Nack(job *models.TranslationJob, requeue bool) error {
	if job.RabbitMQDelivery == nil {
		return nil
	}
	return rq.nackInternal(job.DeliveryTag, requeue)
}

func (rq *RabbitMQQueue) nackInternal(deliveryTag uint64, requeue bool) error {
	rq.ackMutex.Lock()
	defer rq.ackMutex.Unlock()
	return rq.consumeChannel.Nack(deliveryTag, false, requeue)
}

// Close 关闭队列
func (rq *RabbitMQQueue) Close() error {
	rq.closeOnce.Do(func() {
		close(rq.closed)
		rq.cancel()

		if rq.consumeChannel != nil {
			rq.consumeChannel.Close()
		}
		if rq.consumeConn != nil {
			rq.consumeConn.Close()
		}
		rq.closePublisher()

		log.Println("✓ RabbitMQ 队列已关闭")
	})
	return nil
}

func (rq *RabbitMQQueue) closePublisher() {
	if rq.publishChannel != nil {
		rq.publishChannel.Close()
	}
	if rq.publishConn != nil {
		rq.publishConn.Close()
	}
}
