package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/ledtimeline/tick"
)

// DefaultTopic is used when the config names no stream topic.
const DefaultTopic = "home/xmastree/stream"

// MqttConfig locates the broker frames are published to.
type MqttConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
	Topics   struct {
		Stream string `yaml:"stream"`
	} `yaml:"topics"`
}

// StripConfig describes the LED strip.
type StripConfig struct {
	Pixels    int `yaml:"pixels"`
	FrameRate int `yaml:"frameRate"`
}

// APIConfig configures the HTTP control API.
type APIConfig struct {
	Listen string `yaml:"listen"`
	Static string `yaml:"static"`
}

// Config is the streamer configuration file.
type Config struct {
	Mqtt  MqttConfig  `yaml:"mqtt"`
	Strip StripConfig `yaml:"strip"`
	API   APIConfig   `yaml:"api"`
	Show  Step        `yaml:"show"`
}

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// ParseConfig decodes and validates YAML config bytes.
func ParseConfig(b []byte) (*Config, error) {
	return DecodeConfig(bytes.NewReader(b))
}

// DecodeConfig decodes and validates a YAML config stream. Unknown keys are
// rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	c := new(Config)
	decoder := yaml.NewDecoder(r)
	decoder.SetStrict(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config is empty")
		}
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Mqtt.Topics.Stream == "" {
		c.Mqtt.Topics.Stream = DefaultTopic
	}
	if c.Strip.Pixels == 0 {
		c.Strip.Pixels = 500
	}
	if c.Strip.FrameRate == 0 {
		c.Strip.FrameRate = 60
	}
	if c.API.Listen == "" {
		c.API.Listen = ":3000"
	}
}

// Validate checks the config, including that the show builds.
func (c *Config) Validate() error {
	if c.Mqtt.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.Mqtt.QoS)
	}
	if c.Strip.Pixels < 1 || c.Strip.Pixels > 65535 {
		return fmt.Errorf("strip.pixels must be between 1 and 65535, got %d", c.Strip.Pixels)
	}
	if c.Strip.FrameRate < 1 || c.Strip.FrameRate > int(tick.PerSecond) {
		return fmt.Errorf("strip.frameRate must be between 1 and %d, got %d", tick.PerSecond, c.Strip.FrameRate)
	}
	if _, err := BuildShow(nil, NewFrame(c.Strip.Pixels), c.Show); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}

// PulseStep returns the tick step of one frame.
func (c *Config) PulseStep() tick.Tick {
	return tick.PerFrame(c.Strip.FrameRate)
}

// Interval returns the wall-clock time between frames.
func (c *Config) Interval() time.Duration {
	return time.Second / time.Duration(c.Strip.FrameRate)
}
