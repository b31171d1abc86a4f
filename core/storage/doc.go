// Package storage wraps the S3 compatible object store (MinIO) used for
// spreadsheet imports and generated reports.
//
// Import workbooks can be read from the bucket instead of a local file, and the
// rejects report of a bulk run as well as warehouse exports are uploaded back
// under a reports prefix. The Client interface is kept narrow so tests can use
// the testify mock in the mocks subpackage.
package storage
