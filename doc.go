// Package s3grep provides concurrent substring search across the objects
// of an S3 bucket. It wraps AWS SDK v2 to list, fetch, decode, and
// line-scan objects in a bounded worker pool, reporting matches and
// progress as the scan runs.
//
// The package emphasizes simple usage with intelligent defaults: a
// zero-configuration client uses the AWS credential chain, and scans run
// with eight concurrent object pipelines unless told otherwise.
//
// Key features:
//   - Streaming object listing: scanning starts while listing continues
//   - Transparent gzip and zstandard decompression by key suffix
//   - Binary content detection with per-object skip, not failure
//   - Automatic cross-region redirect handling with a single retry
//   - Per-object error isolation: one bad object never stops the scan
//
// Example usage:
//
//	client, err := s3grep.New(s3grep.WithRegion("us-west-2"))
//	if err != nil {
//	    return err
//	}
//
//	outcome, err := client.Scan(ctx, &scantypes.ScanRequest{
//	    Bucket:  "my-logs",
//	    Prefix:  "2026/",
//	    Pattern: "error",
//	})
//	if err != nil {
//	    return err
//	}
//
//	for _, m := range outcome.Matches {
//	    fmt.Printf("s3://my-logs/%s:%d:%s\n", m.Key, m.LineNum, m.Line)
//	}
package s3grep
