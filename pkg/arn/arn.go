// Package arn contains small helpers for picking fields out of AWS ARNs and
// S3 URLs. Parsing is positional, matching how the callers consume stack ids
// and role ARNs; it does not attempt full ARN grammar validation.
package arn

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	regionIndex     = 3
	accountIndex    = 4
	relativeIDIndex = 5
)

func part(arn string, index int) (string, error) {
	parts := strings.SplitN(arn, ":", relativeIDIndex+1)
	if len(parts) <= index {
		return "", fmt.Errorf("arn %q has no component at position %d", arn, index)
	}
	return parts[index], nil
}

// Region returns the region component of an ARN.
func Region(arn string) (string, error) { return part(arn, regionIndex) }

// AccountID returns the account id component of an ARN.
func AccountID(arn string) (string, error) { return part(arn, accountIndex) }

// RelativeID returns everything after the account id, e.g.
// "stack/my-stack/8a123" for a CloudFormation stack ARN.
func RelativeID(arn string) (string, error) { return part(arn, relativeIDIndex) }

// StackParts splits a CloudFormation stack ARN into region, account id, stack
// name and stack uuid.
func StackParts(stackARN string) (region, accountID, stackName, stackUUID string, err error) {
	region, err = Region(stackARN)
	if err != nil {
		return "", "", "", "", err
	}
	accountID, err = AccountID(stackARN)
	if err != nil {
		return "", "", "", "", err
	}
	relative, err := RelativeID(stackARN)
	if err != nil {
		return "", "", "", "", err
	}
	// stack/<name>/<uuid>
	relativeParts := strings.Split(relative, "/")
	if len(relativeParts) < 3 {
		return "", "", "", "", fmt.Errorf("stack arn %q has malformed relative id %q", stackARN, relative)
	}
	return region, accountID, relativeParts[1], relativeParts[2], nil
}

// S3Bucket extracts the bucket name from an S3 URL in virtual-hosted
// (https://bucket.s3.region.amazonaws.com/key), path
// (https://s3.region.amazonaws.com/bucket/key) or s3://bucket/key form.
func S3Bucket(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse s3 url: %w", err)
	}

	switch u.Scheme {
	case "s3":
		if u.Host == "" {
			return "", fmt.Errorf("s3 url %q has no bucket", rawURL)
		}
		return u.Host, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported s3 url scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if !strings.HasSuffix(host, ".amazonaws.com") {
		return "", fmt.Errorf("host %q is not an s3 endpoint", host)
	}
	if strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-") {
		// Path style: first path segment is the bucket.
		segments := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if segments[0] == "" {
			return "", fmt.Errorf("s3 url %q has no bucket in path", rawURL)
		}
		return segments[0], nil
	}
	// Virtual hosted style: everything before the first ".s3" label.
	if idx := strings.Index(host, ".s3"); idx > 0 {
		return host[:idx], nil
	}
	return "", fmt.Errorf("cannot determine bucket from s3 url %q", rawURL)
}
