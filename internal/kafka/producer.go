package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrBufferFull = errors.New("kafka producer buffer is full")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer пишет сообщения из буферизованного канала в фоне.
// Publish не блокирует обработчик запроса: при полном буфере сообщение отбрасывается.
type Producer struct {
	log     *slog.Logger
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(log *slog.Logger, brokers []string, topic string, buf int) *Producer {
	return newProducer(log, &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf)
}

func newProducer(log *slog.Logger, w messageWriter, buf int) *Producer {
	return &Producer{
		log:     log.With(slog.String("component", "kafka.Producer")),
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start запускает цикл отправки; после отмены ctx оставшиеся сообщения дописываются и writer закрывается
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				if err := p.w.Close(); err != nil {
					p.log.Error("failed to close kafka writer", slog.Any("error", err))
				}
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("failed to write kafka message", slog.String("key", string(m.Key)), slog.Any("error", err))
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	select {
	case p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}:
		return nil
	default:
		return ErrBufferFull
	}
}

// WaitClosed ждёт, пока цикл отправки завершится.
func (p *Producer) WaitClosed() { <-p.closeCh }
