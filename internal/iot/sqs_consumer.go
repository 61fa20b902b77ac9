package iot

import (
	"context"
	"errors"
	"time"

	"garage_config/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// OccupancyHandler applies one occupancy message body.
type OccupancyHandler interface {
	HandleOccupancyMessage(ctx context.Context, body string) error
}

// SQSConsumer long-polls the occupancy queue. Handled messages are deleted;
// failed ones reappear after the visibility timeout, except malformed ones,
// which can never succeed and are deleted too.
type SQSConsumer struct {
	sqsClient  sqsAPI
	queueURL   string
	handler    OccupancyHandler
	log        *zap.Logger
	retryDelay time.Duration
}

func NewSQSConsumer(client sqsAPI, queueURL string, handler OccupancyHandler, log *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		handler:    handler,
		log:        log,
		retryDelay: 5 * time.Second,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	c.log.Info("sqs consumer listening", zap.String("queue_url", c.queueURL))
	for {
		select {
		case <-ctx.Done():
			c.log.Info("sqs consumer stopped")
			return
		default:
		}

		result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("sqs consumer stopped")
				return
			}
			c.log.Warn("sqs receive failed", zap.Error(err))
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				c.log.Info("sqs consumer stopped")
				return
			}
			continue
		}

		for _, message := range result.Messages {
			if message.Body == nil {
				c.deleteMessage(ctx, message.ReceiptHandle)
				continue
			}
			err := c.handler.HandleOccupancyMessage(ctx, *message.Body)
			switch {
			case err == nil:
				c.deleteMessage(ctx, message.ReceiptHandle)
			case errors.Is(err, service.ErrMalformedMessage):
				c.log.Warn("discarding malformed occupancy message",
					zap.String("message_id", aws.ToString(message.MessageId)), zap.Error(err))
				c.deleteMessage(ctx, message.ReceiptHandle)
			default:
				c.log.Error("occupancy message failed, leaving for redelivery",
					zap.String("message_id", aws.ToString(message.MessageId)), zap.Error(err))
			}
		}
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.log.Warn("sqs message has no receipt handle, cannot delete")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.log.Warn("sqs delete failed", zap.Error(err))
	}
}
