package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// RunConsoleMQTT prints lock events and status changes as they arrive.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole+"-monitor")
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	eventToken := client.Subscribe(cfg.TopicLockEvents, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var ev lock.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}
		fmt.Println(formatEvent(ev))
	})
	eventToken.Wait()
	if eventToken.Error() != nil {
		return eventToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicLockEvents)

	statusToken := client.Subscribe(cfg.TopicLockStatus, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var st lock.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}
		fmt.Println(formatStatus(st))
	})
	statusToken.Wait()
	if statusToken.Error() != nil {
		return statusToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicLockStatus)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatEvent(ev lock.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[EVENT]  %s  %-26s state=%-8s attempts=%d/%d",
		ev.Time.Format("15:04:05.000"), ev.Outcome, ev.State, ev.Attempts, ev.MaxAttempts)
	if ev.Samples > 0 {
		fmt.Fprintf(&b, " samples=%d", ev.Samples)
	}
	switch ev.Outcome {
	case lock.OutcomeUnlocked, lock.OutcomeMismatch, lock.OutcomeLockoutEntered:
		fmt.Fprintf(&b, " score=%.2f%%", ev.Score*100)
	}
	if ev.LockoutRemainingMS > 0 {
		fmt.Fprintf(&b, " lockout=%ds", ev.LockoutRemainingMS/1000)
	}
	return b.String()
}

func formatStatus(st lock.Status) string {
	return fmt.Sprintf("[STATUS] %s  state=%-8s attempts=%d/%d template=%d",
		st.Time.Format("15:04:05.000"), st.State, st.Attempts, st.MaxAttempts, st.TemplateLength)
}
