package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

const (
	EnvAppEnv   = "RUGSTORE_APP_ENV"
	EnvPort     = "RUGSTORE_APP_PORT"
	EnvLogLevel = "RUGSTORE_LOG_LEVEL"

	EnvDBDSN    = "RUGSTORE_DB_DSN"
	EnvDBDriver = "RUGSTORE_DB_DRIVER"
	EnvDBHost   = "RUGSTORE_DB_HOST"
	EnvDBPort   = "RUGSTORE_DB_PORT"
	EnvDBUser   = "RUGSTORE_DB_USER"
	EnvDBName   = "RUGSTORE_DB_NAME"

	EnvRedisURL = "RUGSTORE_REDIS_URL"

	EnvJWTSecret              = "RUGSTORE_JWT_SECRET"
	EnvJWTIssuer              = "RUGSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "RUGSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RUGSTORE_REFRESH_TOKEN_TTL_MINUTES"

	EnvRazorpayKeyID     = "RUGSTORE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret = "RUGSTORE_RAZORPAY_KEY_SECRET"

	EnvEventsBroker = "RUGSTORE_EVENTS_BROKER"
	EnvKafkaBrokers = "RUGSTORE_KAFKA_BROKERS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
