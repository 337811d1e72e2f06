package config

import "os"

type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type S3 struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

type Config struct {
	PostgresURI        string
	RedisURI           string
	SecretKey          string
	TokenEncryptionKey string
	Google             OAuthClient
	Facebook           OAuthClient
	Tiktok             OAuthClient
	S3                 S3
	StatusCheckURL     string
	ListenAddr         string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "127.0.0.1:6379"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		Google: OAuthClient{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		Facebook: OAuthClient{
			ClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
			ClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("FACEBOOK_REDIRECT_URI", ""),
		},
		Tiktok: OAuthClient{
			ClientID:     getEnv("TIKTOK_CLIENT_KEY", ""),
			ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("TIKTOK_REDIRECT_URI", ""),
		},
		S3: S3{
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Bucket:    getEnv("AWS_S3_BUCKET", ""),
		},
		StatusCheckURL: getEnv("STATUS_CHECK_URL", "http://localhost:3000/webhooks/facebook/data-deletion/status"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
