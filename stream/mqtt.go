package stream

import (
	"log"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

func init() {
	mqtt.ERROR = log.New(os.Stderr, "mqtt: ", 0)
}

// ClientID returns a unique MQTT client identifier.
func ClientID() string {
	return "ledtimeline-" + uuid.NewString()
}

// NewClientOptions builds paho options for the configured broker.
func NewClientOptions(c MqttConfig) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(c.URL).
		SetClientID(ClientID()).
		SetUsername(c.Username).
		SetPassword(c.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			slog.Info("connected to broker", "url", c.URL)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("lost connection to broker", "url", c.URL, "error", err)
		})
}

// Connect connects to the configured broker, waiting up to timeout.
func Connect(c MqttConfig, timeout time.Duration) (mqtt.Client, error) {
	client := mqtt.NewClient(NewClientOptions(c))
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, &ConnectError{URL: c.URL, Timeout: timeout}
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// ConnectError reports a broker that did not answer in time.
type ConnectError struct {
	URL     string
	Timeout time.Duration
}

func (e *ConnectError) Error() string {
	return "connecting to " + e.URL + " timed out after " + e.Timeout.String()
}
