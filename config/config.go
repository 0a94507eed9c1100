// config/config.go
package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type SMSConfig struct {
	SenderNumber string `mapstructure:"senderNumber"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendGridAPIKey"`
	FromEmail      string `mapstructure:"fromEmail"`
	FromName       string `mapstructure:"fromName"`
}

type JobsConfig struct {
	// Cron spec for the expiry sweep, e.g. "*/10 * * * *".
	ExpirySchedule string `mapstructure:"expirySchedule"`
	// How long a new request stays open before it expires.
	RequestTTLHours int `mapstructure:"requestTTLHours"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	S3     S3Config     `mapstructure:"s3"`
	SMS    SMSConfig    `mapstructure:"sms"`
	Email  EmailConfig  `mapstructure:"email"`
	Jobs   JobsConfig   `mapstructure:"jobs"`
}

// LoadConfig reads configuration from file and overrides with environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("sms.senderNumber", "SMS_SENDER_NUMBER")
	viper.BindEnv("email.sendGridAPIKey", "SENDGRID_API_KEY")
	viper.BindEnv("email.fromEmail", "EMAIL_FROM_ADDRESS")
	viper.BindEnv("email.fromName", "EMAIL_FROM_NAME")
	viper.BindEnv("jobs.expirySchedule", "JOBS_EXPIRY_SCHEDULE")
	viper.BindEnv("jobs.requestTTLHours", "JOBS_REQUEST_TTL_HOURS")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("email.fromName", "Agri Market")
	viper.SetDefault("jobs.expirySchedule", "*/10 * * * *")
	viper.SetDefault("jobs.requestTTLHours", 48)

	// If the file is missing, Viper falls back to environment variables only.
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
