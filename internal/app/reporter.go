package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

const publishTimeout = 2 * time.Second

// publisher is the part of mqtt.Client the reporter needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// mqttReporter publishes every lock event, and the status snapshot that
// came with it as a retained message, so late subscribers see the
// current state immediately.
type mqttReporter struct {
	client      publisher
	eventsTopic string
	statusTopic string
}

func newMQTTReporter(client publisher, eventsTopic, statusTopic string) *mqttReporter {
	return &mqttReporter{client: client, eventsTopic: eventsTopic, statusTopic: statusTopic}
}

// connectMQTT connects to broker as clientID.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Observe implements lock.Observer.
func (r *mqttReporter) Observe(ev lock.Event, st lock.Status) {
	r.publish(r.eventsTopic, false, ev)
	r.publish(r.statusTopic, true, st)
}

// PublishStatus publishes a retained status snapshot outside of any event.
func (r *mqttReporter) PublishStatus(st lock.Status) {
	r.publish(r.statusTopic, true, st)
}

func (r *mqttReporter) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("reporter: json marshal error (%s): %v", topic, err)
		return
	}
	token := r.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("reporter: publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("reporter: MQTT publish error (%s): %v", topic, err)
	}
}
