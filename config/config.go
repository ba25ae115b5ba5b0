package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI              string `mapstructure:"uri"`
	StagingDBName    string `mapstructure:"stagingDBName"`
	ProductionDBName string `mapstructure:"productionDBName"`
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

// PublishConfig selects how approved menus are placed in the production
// database. Mode is either "flat" (restaurant slug at the root, nested
// restaurantInfo payload) or "hierarchical" (state/city/restaurant path,
// flattened payload).
type PublishConfig struct {
	Mode string `mapstructure:"mode"`
}

type SuggestionConfig struct {
	WebhookURL string `mapstructure:"webhookURL"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	S3         S3Config         `mapstructure:"s3"`
	Publish    PublishConfig    `mapstructure:"publish"`
	Suggestion SuggestionConfig `mapstructure:"suggestion"`
}

// LoadConfig reads config.yaml from the given path and overlays environment
// variables. A missing file is not an error; env vars alone can configure
// the server.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.stagingDBName", "MONGO_STAGING_DBNAME")
	viper.BindEnv("mongo.productionDBName", "MONGO_PRODUCTION_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("publish.mode", "PUBLISH_MODE")
	viper.BindEnv("suggestion.webhookURL", "SUGGESTION_WEBHOOK_URL")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("mongo.stagingDBName", "menus4all-staging")
	viper.SetDefault("mongo.productionDBName", "menus4all")
	viper.SetDefault("publish.mode", "flat")
	viper.SetDefault("jwt.expiration", "24h")

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
