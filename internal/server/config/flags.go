package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/flagx"
)

var serverFlags = []string{
	"-a", "-grpc", "-d", "-s", "-t", "-r", "-env", "-log",
	"-broker", "-kafka", "-topic", "-amqp", "-exchange",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-grpc string     gRPC health bind address
//	-d string        PostgreSQL DSN
//	-s string        JWT HMAC secret key
//	-t int           access token validity, minutes
//	-r int           refresh token validity, minutes
//	-env string      environment (development|production)
//	-log string      log backend (slog|zap)
//	-broker string   events broker (none|kafka|rabbitmq)
//	-kafka string    comma-separated Kafka brokers
//	-topic string    Kafka topic
//	-amqp string     RabbitMQ URL
//	-exchange string RabbitMQ exchange
//	-u, -p, -b, -g, -e  S3 user, password, bucket, region, endpoint
//
// Unknown arguments are dropped by flagx.FilterArgs before parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.Environment, "env", config.Environment, "environment")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend")

	fs.StringVar(&config.EventsBroker, "broker", config.EventsBroker, "events broker")
	kafkaBrokers := fs.String("kafka", strings.Join(config.KafkaBrokers, ","), "Kafka brokers")
	fs.StringVar(&config.KafkaTopic, "topic", config.KafkaTopic, "Kafka topic")
	fs.StringVar(&config.AMQPURL, "amqp", config.AMQPURL, "RabbitMQ URL")
	fs.StringVar(&config.AMQPExchange, "exchange", config.AMQPExchange, "RabbitMQ exchange")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.KafkaBrokers = splitList(*kafkaBrokers)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
