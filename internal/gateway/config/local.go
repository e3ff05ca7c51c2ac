package config

import (
	"os"
	"strings"
)

// localArtifactConfig targets the minio container of the local compose
// stack. Snapshots stay in memory unless ARTIFACT_MINIO_ENDPOINT is set.
func localArtifactConfig() ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), "widgetgen"),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), "widgetgen123"),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "widgetgen-snapshots"),
		UseSSL:    false,
		Prefix:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")),
	}
}
