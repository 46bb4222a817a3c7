package logger

import "strings"

// MaskValue masks a captured form value for logging, keeping only the first
// character (e.g. "hunter2" -> "h******")
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return string(value[0]) + strings.Repeat("*", len(value)-1)
}

// MaskedFields returns a copy of captured field values safe to log.
// Captured values are user input from monitored forms and must never reach
// the log stream raw.
func MaskedFields(values map[string]string) map[string]string {
	masked := make(map[string]string, len(values))
	for name, value := range values {
		masked[name] = MaskValue(value)
	}
	return masked
}

// SanitizeQueryString checks if a query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := map[string]bool{
		"password": true,
		"token":    true,
		"secret":   true,
		"api_key":  true,
		"apikey":   true,
		"email":    true,
		"auth":     true,
	}

	query := strings.ToLower(rawQuery)
	for param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
