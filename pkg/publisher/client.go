// Package publisher sends parsed telegrams to an MQTT broker.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/config"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"

	FormatJSON = "json"
	FormatCBOR = "cbor"
)

var ErrTimeout = errors.New("MQTT operation timed out")

func OptsFromConfig(cfg config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = statusTopic(cfg.BaseTopic)
	opts.WillQos = 0

	return opts
}

type Publisher struct {
	client    mqtt.Client
	baseTopic string
	format    string
	logger    logrus.FieldLogger
}

// NewPublisher creates a client from opts. The status topic is set online
// on every (re)connect.
func NewPublisher(cfg config.MQTTConfig, opts *mqtt.ClientOptions, logger logrus.FieldLogger) *Publisher {
	p := newPublisher(nil, cfg, logger)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("Connected to MQTT broker")
		client.Publish(p.StatusTopic(), 0, true, MQTT_PAYLOAD_ONLINE)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	}
	p.client = mqtt.NewClient(opts)
	return p
}

func newPublisher(client mqtt.Client, cfg config.MQTTConfig, logger logrus.FieldLogger) *Publisher {
	format := cfg.PayloadFormat
	if format == "" {
		format = FormatJSON
	}
	return &Publisher{
		client:    client,
		baseTopic: cfg.BaseTopic,
		format:    format,
		logger:    logger,
	}
}

func (p *Publisher) StatusTopic() string {
	return statusTopic(p.baseTopic)
}

// TelegramTopic receives the whole telegram, see EncodeTelegram.
func (p *Publisher) TelegramTopic() string {
	return fmt.Sprintf("%s/telegram", p.baseTopic)
}

// SensorStateTopic receives the value of one field as text.
// M-Bus readings get the channel appended to the sensor id.
func (p *Publisher) SensorStateTopic(field obis.Field, channel int) string {
	sensorID := strings.ToLower(string(field))
	if channel > 0 {
		sensorID = fmt.Sprintf("%s_%d", sensorID, channel)
	}
	return fmt.Sprintf("%s/sensor/%s/state", p.baseTopic, sensorID)
}

func (p *Publisher) Connect(ctx context.Context) error {
	return wait(ctx, p.client.Connect(), "connect")
}

// Disconnect marks the publisher offline and closes the connection.
func (p *Publisher) Disconnect(timeout time.Duration) {
	token := p.client.Publish(p.StatusTopic(), 0, true, MQTT_PAYLOAD_OFFLINE)
	token.WaitTimeout(timeout)
	p.client.Disconnect(uint(timeout.Milliseconds()))
}

// Publish sends the telegram to TelegramTopic and every scalar value to its
// sensor state topic. It waits for all messages to be handed to the broker.
func (p *Publisher) Publish(ctx context.Context, telegram *objects.Telegram) error {
	payload, err := EncodeTelegram(telegram, p.format)
	if err != nil {
		return err
	}

	tokens := []mqtt.Token{p.client.Publish(p.TelegramTopic(), 0, false, payload)}
	for _, state := range sensorStates(telegram) {
		topic := p.SensorStateTopic(state.field, state.channel)
		tokens = append(tokens, p.client.Publish(topic, 0, true, state.value))
	}

	var errs []error
	for _, token := range tokens {
		if err := wait(ctx, token, "publish"); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		p.logger.WithField("messages", len(tokens)).Debug("Published telegram")
	}
	return errors.Join(errs...)
}

// EncodeTelegram renders the telegram export as JSON or CBOR.
func EncodeTelegram(telegram *objects.Telegram, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.Marshal(telegram)
	case FormatCBOR:
		return cbor.Marshal(telegram)
	}
	return nil, fmt.Errorf("unknown payload format %q", format)
}

type sensorState struct {
	field   obis.Field
	channel int
	value   string
}

// sensorStates lists the values that fit a single state topic.
// Lists, logs and peak histories are only part of the telegram payload.
func sensorStates(telegram *objects.Telegram) []sensorState {
	var states []sensorState
	add := func(field obis.Field, channel int, obj objects.Object) {
		switch o := obj.(type) {
		case *objects.CosemObject:
			if !o.Raw().IsNil() {
				states = append(states, sensorState{field, channel, o.Raw().Display()})
			}
		case *objects.MBusObject:
			if v := o.RawValue(); !v.IsNil() {
				states = append(states, sensorState{field, channel, v.Display()})
			}
		}
	}

	for _, fo := range telegram.Fields() {
		if !fo.Object.IsMBusReading() {
			add(fo.Field, 0, fo.Object)
		}
	}
	for _, device := range telegram.MbusDevices() {
		for _, fo := range device.Fields() {
			add(fo.Field, device.ChannelID, fo.Object)
		}
	}
	return states
}

func wait(ctx context.Context, token mqtt.Token, what string) error {
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("MQTT %s: %w", what, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrTimeout, what, ctx.Err())
	}
}

func statusTopic(baseTopic string) string {
	return fmt.Sprintf("%s/status", baseTopic)
}
