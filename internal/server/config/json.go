package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bankledger/internal/flagx"
	"github.com/dmitrijs2005/bankledger/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// either "1h"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	Environment                  string         `json:"environment"`
	LogBackend                   string         `json:"log_backend"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	EventsBroker                 string         `json:"events_broker"`
	KafkaBrokers                 []string       `json:"kafka_brokers"`
	KafkaTopic                   string         `json:"kafka_topic"`
	AMQPURL                      string         `json:"amqp_url"`
	AMQPExchange                 string         `json:"amqp_exchange"`
	OutboxPollInterval           timex.Duration `json:"outbox_poll_interval"`
	OutboxBatchSize              int            `json:"outbox_batch_size"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays values from the file named by -c/-config (or
// $BANKLEDGER_CONFIG) onto config. Keys absent from the file keep their
// current values. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.EventsBroker, c.EventsBroker)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.OutboxPollInterval.Duration > 0 {
		config.OutboxPollInterval = c.OutboxPollInterval.Duration
	}
	if c.OutboxBatchSize > 0 {
		config.OutboxBatchSize = c.OutboxBatchSize
	}
	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}
