package checks

import (
	"context"
	"fmt"
	"strings"

	"sapataria/core/storage"

	"go.uber.org/zap"
)

// StorageReport describes the bucket holding imported workbooks and reject reports.
type StorageReport struct {
	Bucket        string   `json:"bucket"`
	Exists        bool     `json:"exists"`
	ReportsPrefix string   `json:"reports_prefix"`
	Reports       int      `json:"reports"`
	ReportKeys    []string `json:"report_keys,omitempty"`
}

// CheckStorage reports whether bucket exists and lists the reports under prefix.
func CheckStorage(ctx context.Context, client storage.Client, bucket, prefix string) (*StorageReport, error) {
	if client == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	report := &StorageReport{Bucket: bucket, ReportsPrefix: prefix}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report.Exists = exists
	if !exists {
		return report, nil
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys, err := storage.ListKeys(ctx, client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if !strings.HasSuffix(key, "/") {
			report.ReportKeys = append(report.ReportKeys, key)
		}
	}
	report.Reports = len(report.ReportKeys)
	return report, nil
}

// FixStorage creates the bucket when it is missing.
func FixStorage(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if client == nil {
		return fmt.Errorf("object storage is not configured")
	}
	if err := storage.EnsureBucket(ctx, client, bucket); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Bucket ready", zap.String("bucket", bucket))
	return nil
}
