package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/client/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

var (
	username = configVar[string]{
		envKey:       "CLIENT_USERNAME",
		flagKey:      "username",
		defaultValue: "",
		usage:        "Display name in the room",
	}
	room = configVar[string]{
		envKey:       "CLIENT_ROOM",
		flagKey:      "room",
		defaultValue: "",
		usage:        "Room code to join, a new room is created when empty",
	}
	directoryURL = configVar[string]{
		envKey:       "CLIENT_DIRECTORY_URL",
		flagKey:      "directory-url",
		defaultValue: "",
		usage:        "Room directory base url, skipped when empty",
	}
	relay = configVar[string]{
		envKey:       "CLIENT_RELAY",
		flagKey:      "relay",
		defaultValue: app.RelayWebsocket,
		usage:        "Relay transport (ws|redis)",
	}
	relayURL = configVar[string]{
		envKey:       "CLIENT_RELAY_URL",
		flagKey:      "relay-url",
		defaultValue: "ws://localhost:8080/ws",
		usage:        "Websocket relay url",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	apiHost = configVar[string]{
		envKey:       "CLIENT_API_HOST",
		flagKey:      "api-host",
		defaultValue: "127.0.0.1",
		usage:        "Local API host",
	}
	apiPort = configVar[int]{
		envKey:       "CLIENT_API_PORT",
		flagKey:      "api-port",
		defaultValue: 8090,
		usage:        "Local API port",
	}
	logLevel = configVar[string]{
		envKey:       "CLIENT_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
		usage:        "YouTube Data API key, a mock catalog is used when empty",
	}
	playlistLimit = configVar[int]{
		envKey:       "CLIENT_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 25,
		usage:        "Maximum number of videos in the queue",
	}
	chatLimit = configVar[int]{
		envKey:       "CLIENT_CHAT_LIMIT",
		flagKey:      "chat-limit",
		defaultValue: 500,
		usage:        "Maximum number of chat messages kept",
	}
	queueLimit = configVar[int]{
		envKey:       "CLIENT_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 100,
		usage:        "Maximum number of outbound messages buffered while disconnected",
	}
	reconnectDelay = configVar[time.Duration]{
		envKey:       "CLIENT_RECONNECT_DELAY",
		flagKey:      "reconnect-delay",
		defaultValue: time.Second,
		usage:        "Delay between reconnect attempts",
	}
	maxReconnectAttempts = configVar[int]{
		envKey:       "CLIENT_MAX_RECONNECT_ATTEMPTS",
		flagKey:      "max-reconnect-attempts",
		defaultValue: 5,
		usage:        "Consecutive failures before giving up",
	}
	heartbeatInterval = configVar[time.Duration]{
		envKey:       "CLIENT_HEARTBEAT_INTERVAL",
		flagKey:      "heartbeat-interval",
		defaultValue: 5 * time.Second,
		usage:        "Interval of the host's play state broadcast",
	}
)

func loadAppConfig() *app.AppConfig {
	for _, v := range []configVar[string]{username, room, directoryURL, relay, relayURL, redisHost, redisPassword, apiHost, logLevel, youtubeAPIKey} {
		pflag.String(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	for _, v := range []configVar[int]{redisPort, apiPort, playlistLimit, chatLimit, queueLimit, maxReconnectAttempts} {
		pflag.Int(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	for _, v := range []configVar[time.Duration]{reconnectDelay, heartbeatInterval} {
		pflag.Duration(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Username:             viper.GetString(username.flagKey),
		Room:                 viper.GetString(room.flagKey),
		DirectoryURL:         viper.GetString(directoryURL.flagKey),
		Relay:                viper.GetString(relay.flagKey),
		RelayURL:             viper.GetString(relayURL.flagKey),
		RedisHost:            viper.GetString(redisHost.flagKey),
		RedisPort:            viper.GetInt(redisPort.flagKey),
		RedisPassword:        viper.GetString(redisPassword.flagKey),
		APIHost:              viper.GetString(apiHost.flagKey),
		APIPort:              viper.GetInt(apiPort.flagKey),
		LogLevel:             viper.GetString(logLevel.flagKey),
		YoutubeAPIKey:        viper.GetString(youtubeAPIKey.flagKey),
		PlaylistLimit:        viper.GetInt(playlistLimit.flagKey),
		ChatLimit:            viper.GetInt(chatLimit.flagKey),
		QueueLimit:           viper.GetInt(queueLimit.flagKey),
		ReconnectDelay:       viper.GetDuration(reconnectDelay.flagKey),
		MaxReconnectAttempts: viper.GetInt(maxReconnectAttempts.flagKey),
		HeartbeatInterval:    viper.GetDuration(heartbeatInterval.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting client with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
