// Utilities for parsing cURL commands copied from the API dashboard or docs.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlRequest represents the parts of a cURL command the client cares about.
type CurlRequest struct {
	URL     string
	Headers map[string]string
}

var (
	curlHeaderRegex = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlURLRegex    = regexp.MustCompile(`https?://[^\s'"]+`)
)

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts the headers and first URL of a cURL command.
//
// Line continuations are joined. Header names are kept as written; use [CurlRequest.Header] for lookups.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	cmd := strings.ReplaceAll(string(data), "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	headers := make(map[string]string)
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(cmd, -1) {
		line := match[1]
		if line == "" {
			line = match[2]
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if key = strings.TrimSpace(key); key != "" {
			headers[key] = strings.TrimSpace(value)
		}
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlRequest{
		URL:     curlURLRegex.FindString(cmd),
		Headers: headers,
	}, nil
}

// Header returns the value of the named header, matched case-insensitively.
func (c *CurlRequest) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// APIKey returns the credential carried by the command: the x-api-key header, else a bearer token.
func (c *CurlRequest) APIKey() (string, error) {
	if key := c.Header("x-api-key"); key != "" {
		return key, nil
	}
	if auth := c.Header("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}
	return "", fmt.Errorf("%w: no x-api-key header in curl command", ErrMissingCredentials)
}
