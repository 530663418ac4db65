package config

import (
	"os"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	GinMode    string
	Port       string

	// DefaultProjectAdminEmail is the fixed identity attached as admin to
	// every newly created project. The creator is deliberately not made
	// admin.
	DefaultProjectAdminEmail    string
	DefaultProjectAdminPassword string

	// StrictProjectUpdate enables the admin role check on project updates.
	// Defaults off: any authenticated actor may update.
	StrictProjectUpdate bool

	// GatePriorityLookup requires project admin for the highest-priority
	// task lookup. The ungated variant is the default.
	GatePriorityLookup bool
}

func Load() *Config {
	return &Config{
		DBDriver:                    getEnv("DB_DRIVER", "mysql"),
		DBHost:                      getEnv("DB_HOST", "localhost"),
		DBPort:                      getEnv("DB_PORT", "3306"),
		DBUser:                      getEnv("DB_USER", "taskuser"),
		DBPassword:                  getEnv("DB_PASSWORD", "taskpassword"),
		DBName:                      getEnv("DB_NAME", "project_management"),
		JWTSecret:                   getEnv("JWT_SECRET", "default-secret-key-change-me"),
		GinMode:                     getEnv("GIN_MODE", "debug"),
		Port:                        getEnv("PORT", "8080"),
		DefaultProjectAdminEmail:    getEnv("DEFAULT_PROJECT_ADMIN_EMAIL", "safaa@gmail.com"),
		DefaultProjectAdminPassword: getEnv("DEFAULT_PROJECT_ADMIN_PASSWORD", "password"),
		StrictProjectUpdate:         getEnvBool("STRICT_PROJECT_UPDATE", false),
		GatePriorityLookup:          getEnvBool("GATE_PRIORITY_LOOKUP", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	default:
		return defaultValue
	}
}
