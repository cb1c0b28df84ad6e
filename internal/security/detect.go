package security

import "regexp"

// sqlInjectionPatterns match SQL keywords, comment markers, boolean
// injection shapes, and string-building functions.
var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|create|alter|exec|execute|truncate)\b`),
	regexp.MustCompile(`--|/\*`),
	regexp.MustCompile(`'[^']*'\s*=\s*'[^']*'`),
	regexp.MustCompile(`(?i)\b(char|concat|substring|group_concat|load_file)\s*\(`),
}

// xssPatterns match script tags, javascript: URIs, inline event handlers,
// and embeddable tags.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
}

// suspiciousPatterns match directory traversal, sensitive absolute paths,
// and null-byte encodings.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./|\.\.\\`),
	regexp.MustCompile(`(?i)/etc/passwd`),
	regexp.MustCompile(`(?i)/proc/`),
	regexp.MustCompile(`%00|\\x00|\x00`),
}

// Detector runs the pattern detectors. When disabled, every detector
// reports false, which bypasses monitoring for trusted internal callers.
type Detector struct {
	enabled bool
}

// NewDetector constructs a Detector.
func NewDetector(enabled bool) *Detector {
	return &Detector{enabled: enabled}
}

// DetectSQLInjection reports whether the value matches a SQL injection pattern.
func (d *Detector) DetectSQLInjection(value string) bool {
	return d.match(sqlInjectionPatterns, value)
}

// DetectXSS reports whether the value matches a cross-site scripting pattern.
func (d *Detector) DetectXSS(value string) bool {
	return d.match(xssPatterns, value)
}

// DetectSuspiciousActivity reports whether the value matches traversal or
// probing patterns.
func (d *Detector) DetectSuspiciousActivity(value string) bool {
	return d.match(suspiciousPatterns, value)
}

func (d *Detector) match(patterns []*regexp.Regexp, value string) bool {
	if d == nil || !d.enabled || value == "" {
		return false
	}
	for _, pattern := range patterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
