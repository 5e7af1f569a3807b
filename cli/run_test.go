package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledtimeline/stream"
)

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

func TestRunStreamsAndFadesOut(t *testing.T) {
	pub := new(recordingPublisher)
	released := false
	connect := func(c stream.MqttConfig, timeout, publishTimeout time.Duration) (stream.Publisher, func(), error) {
		assert.Equal(t, "tcp://localhost:1883", c.URL)
		assert.Equal(t, time.Second, timeout)
		return pub, func() { released = true }, nil
	}

	opts := &RunOptions{ConnectTimeout: time.Second, FadeFrames: 3, For: 350 * time.Millisecond}
	err := runShow(context.Background(), &RootOptions{ConfigPath: testConfig}, opts, connect)
	require.NoError(t, err)
	assert.True(t, released)

	frames := pub.frames()
	require.GreaterOrEqual(t, len(frames), 4)
	for _, topic := range pub.topics {
		assert.Equal(t, "test/stream", topic)
	}
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0}, frames[len(frames)-1])
}

func TestRunStopsOnCancel(t *testing.T) {
	pub := new(recordingPublisher)
	connect := func(stream.MqttConfig, time.Duration, time.Duration) (stream.Publisher, func(), error) {
		return pub, func() {}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runShow(ctx, &RootOptions{ConfigPath: testConfig}, &RunOptions{Paused: true}, connect)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunConnectFailure(t *testing.T) {
	refused := errors.New("connection refused")
	connect := func(stream.MqttConfig, time.Duration, time.Duration) (stream.Publisher, func(), error) {
		return nil, nil, refused
	}

	err := runShow(context.Background(), &RootOptions{ConfigPath: testConfig}, &RunOptions{}, connect)
	require.Error(t, err)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunInvalidConfig(t *testing.T) {
	connect := func(stream.MqttConfig, time.Duration, time.Duration) (stream.Publisher, func(), error) {
		t.Fatal("connected with an invalid config")
		return nil, nil, nil
	}

	path := writeConfig(t, "strip:\n  pixels: 0\n  frameRate: 0\n  wattage: 5\n")
	err := runShow(context.Background(), &RootOptions{ConfigPath: path}, &RunOptions{}, connect)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestPublishEvery(t *testing.T) {
	assert.Equal(t, uint64(6), publishEvery(60))
	assert.Equal(t, uint64(1), publishEvery(10))
	assert.Equal(t, uint64(1), publishEvery(1))
}
