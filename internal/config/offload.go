package config

import (
	"fmt"
	"strings"
)

// Offload is the resolved, immutable configuration shared by every media
// component for the life of the process.
type Offload struct {
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	LocalBaseURL  string
	LocalBaseDir  string
	RemoteBaseURL string
}

// Configured reports whether enough is known to talk to the object store.
// Without it the offloader runs in local-only mode.
func (o Offload) Configured() bool {
	return o.AccessKey != "" && o.SecretKey != "" && o.Bucket != ""
}

// RemoteBaseURL returns the public base URL for objects: the CDN domain when
// one is set, otherwise the virtual-hosted S3 URL of the bucket. The result
// has no trailing slash.
func RemoteBaseURL(bucket, region, cdnDomain string) string {
	if cdn := strings.TrimSpace(cdnDomain); cdn != "" {
		if !strings.Contains(cdn, "://") {
			cdn = "https://" + cdn
		}
		return strings.TrimRight(cdn, "/")
	}
	if bucket == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}
