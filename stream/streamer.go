package stream

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/matt-g-everett/ledtimeline/pulse"
)

// A Publisher delivers frame payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTPublisher publishes over a paho client and waits for each delivery.
type MQTTPublisher struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher creates a Publisher on client.
func NewMQTTPublisher(client mqtt.Client, qos byte, timeout time.Duration) *MQTTPublisher {
	p := new(MQTTPublisher)
	p.client = client
	p.qos = qos
	p.timeout = timeout
	return p
}

// Publish sends payload and waits up to the publisher's timeout.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s timed out after %v", topic, p.timeout)
	}
	return token.Error()
}

// Streamer streams RGB data frames to an ledrx device.
type Streamer struct {
	pub   Publisher
	topic string
	frame *Frame

	sent     atomic.Uint64
	failures atomic.Uint64
}

// NewStreamer creates a Streamer publishing frame to topic.
func NewStreamer(pub Publisher, topic string, frame *Frame) *Streamer {
	s := new(Streamer)
	s.pub = pub
	s.topic = topic
	s.frame = frame
	return s
}

// Frame returns the frame being streamed.
func (s *Streamer) Frame() *Frame {
	return s.frame
}

// SendFrame sends the current frame as binary to the ledrx device.
func (s *Streamer) SendFrame() error {
	b, err := s.frame.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.pub.Publish(s.topic, b); err != nil {
		s.failures.Add(1)
		return err
	}
	s.sent.Add(1)
	return nil
}

// FadeOut sends steps frames blending the current frame to black. The
// streamed frame itself is left untouched.
func (s *Streamer) FadeOut(steps int) error {
	black := NewFrame(s.frame.Len())
	for i := 1; i <= steps; i++ {
		f := s.frame.InterpolateFrame(black, float64(i)/float64(steps))
		b, err := f.MarshalBinary()
		if err != nil {
			return err
		}
		if err := s.pub.Publish(s.topic, b); err != nil {
			return fmt.Errorf("fading out: %w", err)
		}
	}
	return nil
}

// Attach sends a frame after every pulse of t.
func (s *Streamer) Attach(t *pulse.Timer) {
	t.OnPulse(func() {
		if err := s.SendFrame(); err != nil {
			slog.Error("failed to send frame", "topic", s.topic, "error", err)
		}
	})
}

// Stats returns the number of frames sent and failed.
func (s *Streamer) Stats() (sent, failed uint64) {
	return s.sent.Load(), s.failures.Load()
}
