package types

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort  uint   `envconfig:"SERVER_PORT" default:"8001"`

	// ReadTimeoutSec bounds the whole request body, so it has to cover a
	// MAX_UPLOAD_MB upload on a slow link.
	ReadHeaderTimeoutSec uint  `envconfig:"READ_HEADER_TIMEOUT_SEC" default:"10"`
	ReadTimeoutSec       uint  `envconfig:"READ_TIMEOUT_SEC" default:"300"`
	WriteTimeoutSec      uint  `envconfig:"WRITE_TIMEOUT_SEC" default:"360"`
	MaxUploadMB          int64 `envconfig:"MAX_UPLOAD_MB" default:"50"`

	// Document store
	StoreDriver    string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURL       string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017/protv_app"`
	DatabaseName   string `envconfig:"DB_NAME" default:"protv_app"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DatabaseSchema string `envconfig:"DATABASE_SCHEMA" default:"protv"`

	// File storage
	StorageDriver       string `envconfig:"STORAGE_DRIVER" default:"drive"`
	GoogleDriveFolderID string `envconfig:"GOOGLE_DRIVE_FOLDER_ID"`
	S3BucketName        string `envconfig:"S3_BUCKET_NAME"`
	S3Endpoint          string `envconfig:"S3_ENDPOINT"`
	S3Region            string `envconfig:"S3_REGION" default:"auto"`
	S3AccessKey         string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey         string `envconfig:"S3_SECRET_KEY"`
	S3PresignTTLMinutes int    `envconfig:"S3_PRESIGN_TTL_MIN" default:"10080"` // 7 days, the SigV4 maximum
	S3RootPrefix        string `envconfig:"S3_ROOT_PREFIX" default:"applications"`

	// Events
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"applications"`
}

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	StorageDriverDrive = "drive"
	StorageDriverS3    = "s3"
)
