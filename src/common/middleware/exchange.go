package middleware

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/maxogod/distro-lottery/src/common/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ContentTypeProtobuf = "application/x-protobuf"

type exchangeMiddleware struct {
	mu           sync.Mutex
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	routingKey   string
}

// NewExchangeMiddleware connects to url and declares a durable exchange of
// the given kind. The channel runs in confirm mode so Send can report
// whether the broker took the message.
func NewExchangeMiddleware(url, exchangeName, exchangeType, routingKey string) (MessageMiddleware, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Logger.Errorf("action: middleware_connect | result: fail | error: %v", err)
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Logger.Errorf("action: middleware_channel | result: fail | error: %v", err)
		_ = conn.Close()
		return nil, err
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		logger.Logger.Errorf("action: exchange_declare | exchange: %s | result: fail | error: %v", exchangeName, err)
		_ = conn.Close()
		return nil, err
	}

	if err = ch.Confirm(false); err != nil {
		logger.Logger.Errorf("action: confirm_mode | result: fail | error: %v", err)
		_ = conn.Close()
		return nil, err
	}

	return &exchangeMiddleware{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		routingKey:   routingKey,
	}, nil
}

func (me *exchangeMiddleware) Send(ctx context.Context, message []byte) MessageMiddlewareError {
	me.mu.Lock()
	defer me.mu.Unlock()

	if me.conn.IsClosed() {
		logger.Logger.Errorf("action: publish | exchange: %s | result: fail | connection closed", me.exchangeName)
		return MessageMiddlewareDisconnectedError
	}

	confirmation, err := me.channel.PublishWithDeferredConfirmWithContext(ctx,
		me.exchangeName, // exchange
		me.routingKey,   // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  ContentTypeProtobuf,
			MessageId:    uuid.NewString(),
			Body:         message,
		})
	if err != nil {
		logger.Logger.Errorf("action: publish | exchange: %s | result: fail | error: %v", me.exchangeName, err)
		return MessageMiddlewareMessageError
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		logger.Logger.Errorf("action: publish_confirm | exchange: %s | result: fail | error: %v", me.exchangeName, err)
		return MessageMiddlewareMessageError
	}
	if !acked {
		return MessageMiddlewareNackError
	}

	logger.Logger.Debugf("action: publish | exchange: %s | result: success | bytes: %d", me.exchangeName, len(message))
	return MessageMiddlewareSuccess
}

func (me *exchangeMiddleware) Close() (e MessageMiddlewareError) {
	me.mu.Lock()
	defer me.mu.Unlock()

	errCh := me.channel.Close()
	errConn := me.conn.Close()
	if errCh != nil || errConn != nil {
		logger.Logger.Errorf("action: middleware_close | result: fail | channel: %v | connection: %v", errCh, errConn)
		return MessageMiddlewareCloseError
	}

	return MessageMiddlewareSuccess
}
