package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port      string `mapstructure:"port"`
	GRPCPort  string `mapstructure:"grpc_port"`
	PprofPort string `mapstructure:"pprof_port"`

	// InstanceID 區分多個 chat_service 實例, 空值時啟動時隨機產生
	InstanceID string `mapstructure:"instance_id"`

	PostgreSQL   DatabaseConfig     `mapstructure:"pg"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	RabbitMQ     RabbitMQConfig     `mapstructure:"rabbitmq"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Relay        RelayConfig        `mapstructure:"relay"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Fanout       FanoutConfig       `mapstructure:"fanout"`
}

// RedisConfig definition redis setting
// 有 MasterName 時走 sentinel, 否則直接連 Addr
type RedisConfig struct {
	Addr          string   `mapstructure:"addr"`
	MasterName    string   `mapstructure:"master_name"`
	SentinelAddrs []string `mapstructure:"sentinel_addrs"`
	Password      string   `mapstructure:"password"`
	RedisDB       int      `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	SSLMode       string `mapstructure:"ssl_mode"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// CacheConfig definition read-through cache setting
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	DetailTTL time.Duration `mapstructure:"detail_ttl"`
	ListTTL   time.Duration `mapstructure:"list_ttl"`
	ScanCount int64         `mapstructure:"scan_count"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`

	// SecondDeleteDelay 寫入後再刪一次的延遲
	SecondDeleteDelay time.Duration `mapstructure:"second_delete_delay"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	URL           string `mapstructure:"url"`
	Exchange      string `mapstructure:"exchange"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryInterval int    `mapstructure:"retry_interval"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval int           `mapstructure:"retry_interval"`
}

// NotifyConfig selects the delivery-event sink: none, kafka or rabbitmq.
type NotifyConfig struct {
	Driver string `mapstructure:"driver"`
}

// RelayConfig definition cross-instance fan-out over redis pub/sub
type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// JWTConfig definition identity token setting
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// ConversationConfig definition conversation rules
type ConversationConfig struct {
	// MaxMembers 0 表示不限制
	MaxMembers         int `mapstructure:"max_members"`
	MinPageSize        int `mapstructure:"min_page_size"`
	MaxPageSize        int `mapstructure:"max_page_size"`
	MessageMinPageSize int `mapstructure:"message_min_page_size"`
	MessageMaxPageSize int `mapstructure:"message_max_page_size"`
}

// FanoutConfig definition live connection delivery setting
type FanoutConfig struct {
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
	QueueSize    int           `mapstructure:"queue_size"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}
