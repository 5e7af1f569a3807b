package stream

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledtimeline/pulse"
	"github.com/matt-g-everett/ledtimeline/tick"
)

type message struct {
	topic   string
	payload []byte
}

type recordingPublisher struct {
	messages []message
	err      error
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message{topic, payload})
	return nil
}

func TestStreamerSendsAfterEveryPulse(t *testing.T) {
	pub := &recordingPublisher{}
	frame := NewFrame(2)
	s := NewStreamer(pub, "tree/stream", frame)
	timer := pulse.NewTimer(tick.Step)
	s.Attach(timer)

	frame.Fill(colorful.Color{R: 1})
	timer.Pulse()
	frame.Set(1, colorful.Color{B: 1})
	timer.Pulse()

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "tree/stream", pub.messages[0].topic)
	assert.Equal(t, []byte{2, 0, 255, 0, 0, 255, 0, 0}, pub.messages[0].payload)
	assert.Equal(t, []byte{2, 0, 255, 0, 0, 0, 0, 255}, pub.messages[1].payload)

	sent, failed := s.Stats()
	assert.Equal(t, uint64(2), sent)
	assert.Equal(t, uint64(0), failed)
	assert.Same(t, frame, s.Frame())
}

func TestStreamerCountsFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker gone")}
	s := NewStreamer(pub, "t", NewFrame(1))
	timer := pulse.NewTimer(tick.Step)
	s.Attach(timer)

	timer.Pulse()
	assert.EqualError(t, s.SendFrame(), "broker gone")

	sent, failed := s.Stats()
	assert.Equal(t, uint64(0), sent)
	assert.Equal(t, uint64(2), failed)
}

// fakeToken completes immediately unless hang is set.
type fakeToken struct {
	mqtt.Token
	hang bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return !t.hang }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.hang }
func (t *fakeToken) Error() error                   { return t.err }

type fakeClient struct {
	mqtt.Client
	token     *fakeToken
	published []message
	qos       byte
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, message{topic, payload.([]byte)})
	c.qos = qos
	return c.token
}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeClient{token: &fakeToken{}}
	p := NewMQTTPublisher(client, 2, time.Second)

	require.NoError(t, p.Publish("a", []byte{1}))
	assert.Equal(t, []message{{"a", []byte{1}}}, client.published)
	assert.Equal(t, byte(2), client.qos)

	client.token = &fakeToken{err: errors.New("not authorised")}
	assert.EqualError(t, p.Publish("a", nil), "not authorised")

	client.token = &fakeToken{hang: true}
	err := p.Publish("a", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestClientID(t *testing.T) {
	a, b := ClientID(), ClientID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^ledtimeline-[0-9a-f-]{36}$`, a)

	opts := NewClientOptions(MqttConfig{URL: "tcp://broker:1883", Username: "tree"})
	assert.Equal(t, "tree", opts.Username)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker:1883", opts.Servers[0].Host)
}

func TestConnectError(t *testing.T) {
	err := &ConnectError{URL: "tcp://x", Timeout: time.Second}
	assert.Equal(t, "connecting to tcp://x timed out after 1s", err.Error())
}

func TestStreamerFadeOut(t *testing.T) {
	pub := &recordingPublisher{}
	frame := NewFrame(1)
	frame.Fill(colorful.Color{R: 1, G: 1, B: 1})
	s := NewStreamer(pub, "t", frame)

	require.NoError(t, s.FadeOut(4))
	require.Len(t, pub.messages, 4)
	assert.Equal(t, []byte{1, 0, 0, 0, 0}, pub.messages[3].payload)
	assert.Greater(t, pub.messages[0].payload[2], pub.messages[2].payload[2])
	assert.Equal(t, "#ffffff", frame.At(0).Hex())

	pub.err = errors.New("gone")
	assert.ErrorContains(t, s.FadeOut(2), "fading out: gone")
}
