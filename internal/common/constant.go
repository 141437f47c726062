package common

// Keys of the persisted settings record. Environment variables with the
// same names take precedence over stored values.
const (
	SettingAccessKeyID      = "AWS_ACCESS_KEY_ID"
	SettingSecretAccessKey  = "AWS_SECRET_ACCESS_KEY"
	SettingBucket           = "AWS_S3_BUCKET"
	SettingRegion           = "AWS_DEFAULT_REGION"
	SettingCloudFrontDomain = "AWS_CLOUDFRONT_DOMAIN"
)

// DefaultRegion is used when neither the environment nor the settings
// record names a region.
const DefaultRegion = "us-east-1"

// SettingKeys lists every settings record key in display order.
var SettingKeys = []string{
	SettingAccessKeyID,
	SettingSecretAccessKey,
	SettingBucket,
	SettingRegion,
	SettingCloudFrontDomain,
}

// IsSensitiveSetting reports whether the key holds a secret that is
// stored encrypted.
func IsSensitiveSetting(key string) bool {
	return key == SettingAccessKeyID || key == SettingSecretAccessKey
}
