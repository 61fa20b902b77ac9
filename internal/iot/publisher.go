package iot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	configQoS      = 1
	publishTimeout = 10 * time.Second
)

type dataPlaneAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// NewIoTDataPlaneClient builds the AWS IoT Data Plane client, pointing it at
// the account's ATS endpoint when one is configured.
func NewIoTDataPlaneClient(awsCfg aws.Config, endpoint string) *iotdataplane.Client {
	return iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
		if endpoint != "" {
			if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// IoTDataPlanePublisher sends garage configs to devices through AWS IoT Core.
type IoTDataPlanePublisher struct {
	client dataPlaneAPI
}

func NewIoTDataPlanePublisher(client dataPlaneAPI) *IoTDataPlanePublisher {
	return &IoTDataPlanePublisher{client: client}
}

func (p *IoTDataPlanePublisher) PublishConfig(ctx context.Context, topic string, payload []byte) error {
	_, err := p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     configQoS,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("iot data plane publish to %s: %w", topic, err)
	}
	return nil
}

type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// MQTTPublisher sends garage configs to devices through a plain MQTT broker.
// Configs are retained so a device that reconnects gets the latest one.
type MQTTPublisher struct {
	client  mqtt.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewMQTTPublisher(opts MQTTOptions, log *zap.Logger) (*MQTTPublisher, error) {
	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetCleanSession(true)
	co.SetConnectTimeout(publishTimeout)
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.String("broker", opts.Broker), zap.Error(err))
	})

	client := mqtt.NewClient(co)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", opts.Broker, token.Error())
	}
	log.Info("connected to mqtt broker", zap.String("broker", opts.Broker), zap.String("client_id", opts.ClientID))
	return newMQTTPublisher(client, log), nil
}

func newMQTTPublisher(client mqtt.Client, log *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, timeout: publishTimeout, log: log}
}

func (p *MQTTPublisher) PublishConfig(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, configQoS, true, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("publish to topic %s timed out after %s", topic, p.timeout)
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
