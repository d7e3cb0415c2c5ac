package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	// Telegram
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	BotUsername string `envconfig:"BOT_USERNAME" required:"true"`

	// Broadcast destinations. The public channel is addressed by @username
	// (it is also used to build the join link for the subscription gate);
	// the group and the relay channel are addressed by numeric chat ID.
	ChannelUsername string `envconfig:"CHANNEL_ID" required:"true"`
	GroupID         int64  `envconfig:"GROUP_ID" required:"true"`
	RelayChatID     int64  `envconfig:"RELAY_CHANNEL_ID" required:"true"`

	// Storage
	MongoURI      string `envconfig:"MONGO_URI" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DB" default:"marketplace"`

	// Read API
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Shown in /help
	SupportURL string `envconfig:"SUPPORT_URL" default:"https://t.me/zensof"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ChannelJoinURL returns the t.me link for the public channel.
func (c *Config) ChannelJoinURL() string {
	name := c.ChannelUsername
	if len(name) > 0 && name[0] == '@' {
		name = name[1:]
	}
	return "https://t.me/" + name
}

// ProductDeepLink returns the /start deep link for a product.
func (c *Config) ProductDeepLink(productID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", c.BotUsername, productID)
}
