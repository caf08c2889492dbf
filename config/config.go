package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	Port               string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	JWTSecret          string
	JWTExpire          time.Duration
	LogLevel           string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	FrontendURLs       []string
	StorageDriver      string // local, s3, gcs
	LocalStoragePath   string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SequenceBackend    string // mysql, redis
	TrackingCacheTTL   time.Duration
	KafkaBrokers       []string

	// 模拟支付
	PaymentSimulationDelay time.Duration
	PaymentSuccessRate     float64
	OrderTTL               time.Duration
	OrderSweepSpec         string

	Debug bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Load()

	validateConfig()

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库：%s:%s，序列后端：%s，存储：%s",
		AppConfig.DBHost, AppConfig.DBPort, AppConfig.SequenceBackend, AppConfig.StorageDriver)
}

// Load 从环境变量中读取配置，不做校验
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8080"),
		DBHost:             getEnv("DB_HOST", ""),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpire:          getEnvAsDuration("JWT_EXPIRE", 30*24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		FrontendURLs:       getEnvAsList("FRONTEND_URLS", []string{"http://localhost:5173", "http://localhost:3000"}),
		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		S3Region:           getEnv("S3_REGION", "ap-south-1"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSProjectID:       getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		SequenceBackend:    getEnv("SEQUENCE_BACKEND", "mysql"),
		TrackingCacheTTL:   getEnvAsDuration("TRACKING_CACHE_TTL", time.Minute),
		KafkaBrokers:       getEnvAsList("KAFKA_BROKERS", nil),

		PaymentSimulationDelay: getEnvAsDuration("PAYMENT_SIMULATION_DELAY", 1500*time.Millisecond),
		PaymentSuccessRate:     getEnvAsFloat("PAYMENT_SUCCESS_RATE", 0.95),
		OrderTTL:               getEnvAsDuration("ORDER_TTL", 24*time.Hour),
		OrderSweepSpec:         getEnv("ORDER_SWEEP_SPEC", "@every 10m"),

		Debug: getEnvAsBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}
	return defaultVal
}

// getEnvAsDuration 支持 "1500ms"、"24h" 这样的写法
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	var list []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// SMTPEnabled 未配置 SMTP 时邮件通知会被跳过
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

func validateConfig() {
	if AppConfig.DBHost == "" || AppConfig.DBUser == "" || AppConfig.DBPassword == "" || AppConfig.DBName == "" {
		log.Fatal("错误：数据库配置不完整")
	}
	if AppConfig.JWTSecret == "" {
		log.Fatal("错误：JWT密钥未设置")
	}
	if AppConfig.SequenceBackend == "redis" && AppConfig.RedisAddr == "" {
		log.Fatal("错误：SEQUENCE_BACKEND=redis 但未设置 REDIS_ADDR")
	}
	if AppConfig.PaymentSuccessRate < 0 || AppConfig.PaymentSuccessRate > 1 {
		log.Fatal("错误：PAYMENT_SUCCESS_RATE 必须在 0 到 1 之间")
	}
	if !AppConfig.SMTPEnabled() {
		log.Println("警告：SMTP配置不完整，邮件通知将被跳过")
	}
}
