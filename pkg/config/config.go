package config

import (
	"os"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	MongoURI                string
	MongoDB                 string
	JWTSecret               string
	AdminEmail              string
	FirebaseCredentialsPath string
	PushEnabled             bool
	PartyExpiryInterval     time.Duration
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                 getEnv("MONGO_DB", "girafa"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		AdminEmail:              getEnv("ADMIN_EMAIL", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PushEnabled:             getEnv("PUSH_ENABLED", "false") == "true",
		PartyExpiryInterval:     getDuration("PARTY_EXPIRY_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
