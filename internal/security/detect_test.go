package security

import "testing"

func TestDetectSQLInjection(t *testing.T) {
	detector := NewDetector(true)

	malicious := []string{
		"select * from x",
		"SELECT * FROM x",
		"SeLeCt * FrOm x",
		"1 UNION SELECT password FROM users",
		"admin'--",
		"1; DROP TABLE users",
		"' OR '1'='1'",
		"concat(username, password)",
	}
	for _, value := range malicious {
		if !detector.DetectSQLInjection(value) {
			t.Errorf("expected detection for %q", value)
		}
	}

	benign := []string{
		"John's Restaurant",
		"John Smith",
		"a normal search phrase",
		"unionized workers",
	}
	for _, value := range benign {
		if detector.DetectSQLInjection(value) {
			t.Errorf("false positive for %q", value)
		}
	}
}

func TestDetectXSS(t *testing.T) {
	detector := NewDetector(true)

	malicious := []string{
		"<script>alert(1)</script>",
		"<SCRIPT SRC=//evil.example>",
		"javascript:alert(document.cookie)",
		`<img src=x onerror=alert(1)>`,
		"<iframe src='//evil.example'></iframe>",
	}
	for _, value := range malicious {
		if !detector.DetectXSS(value) {
			t.Errorf("expected detection for %q", value)
		}
	}

	for _, value := range []string{"<p>hello</p>", "a perfectly normal description"} {
		if detector.DetectXSS(value) {
			t.Errorf("false positive for %q", value)
		}
	}
}

func TestDetectSuspiciousActivity(t *testing.T) {
	detector := NewDetector(true)

	malicious := []string{
		"../../etc/shadow",
		`..\..\windows\system32`,
		"/etc/passwd",
		"/proc/self/environ",
		"file%00.jpg",
	}
	for _, value := range malicious {
		if !detector.DetectSuspiciousActivity(value) {
			t.Errorf("expected detection for %q", value)
		}
	}

	if detector.DetectSuspiciousActivity("docs/readme.txt") {
		t.Errorf("false positive for relative path")
	}
}

func TestDetectorDisabled(t *testing.T) {
	detector := NewDetector(false)
	if detector.DetectSQLInjection("1 UNION SELECT * FROM users") {
		t.Fatalf("disabled detector must report nothing")
	}
	if detector.DetectXSS("<script>") {
		t.Fatalf("disabled detector must report nothing")
	}
	if detector.DetectSuspiciousActivity("../../etc/passwd") {
		t.Fatalf("disabled detector must report nothing")
	}
}
