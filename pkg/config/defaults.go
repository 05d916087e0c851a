package config

import "time"

const (
	defaultDetailTTL          = 60 * time.Minute
	defaultListTTL            = 30 * time.Minute
	defaultScanCount          = 100
	defaultSecondDeleteDelay  = time.Second
	defaultMinPageSize        = 20
	defaultMaxPageSize        = 50
	defaultMessageMinPageSize = 10
	defaultSendTimeout        = 5 * time.Second
	defaultQueueSize          = 64
	defaultPingInterval       = 10 * time.Minute
	defaultRelayChannel       = "chat:fanout"
)

// ApplyDefaults fills zero values left out of the YAML.
func (c *Chat) ApplyDefaults() {
	if c.Cache.DetailTTL <= 0 {
		c.Cache.DetailTTL = defaultDetailTTL
	}
	if c.Cache.ListTTL <= 0 {
		c.Cache.ListTTL = defaultListTTL
	}
	if c.Cache.ScanCount <= 0 {
		c.Cache.ScanCount = defaultScanCount
	}
	if c.Cache.OpTimeout <= 0 {
		c.Cache.OpTimeout = time.Second
	}
	if c.Cache.SecondDeleteDelay <= 0 {
		c.Cache.SecondDeleteDelay = defaultSecondDeleteDelay
	}

	if c.Conversation.MinPageSize <= 0 {
		c.Conversation.MinPageSize = defaultMinPageSize
	}
	if c.Conversation.MaxPageSize < c.Conversation.MinPageSize {
		c.Conversation.MaxPageSize = defaultMaxPageSize
	}
	if c.Conversation.MessageMinPageSize <= 0 {
		c.Conversation.MessageMinPageSize = defaultMessageMinPageSize
	}
	if c.Conversation.MessageMaxPageSize < c.Conversation.MessageMinPageSize {
		c.Conversation.MessageMaxPageSize = defaultMaxPageSize
	}

	if c.Fanout.SendTimeout <= 0 {
		c.Fanout.SendTimeout = defaultSendTimeout
	}
	if c.Fanout.QueueSize <= 0 {
		c.Fanout.QueueSize = defaultQueueSize
	}
	if c.Fanout.PingInterval <= 0 {
		c.Fanout.PingInterval = defaultPingInterval
	}

	if c.Relay.Channel == "" {
		c.Relay.Channel = defaultRelayChannel
	}
	if c.Notify.Driver == "" {
		c.Notify.Driver = "none"
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 60 * time.Minute
	}
	if c.MinIO.PresignExpiry <= 0 {
		c.MinIO.PresignExpiry = 15 * time.Minute
	}
}
