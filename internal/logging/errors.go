package logging

// ErrorKind normalizes error categories for logs and metrics. It maps
// HTTP status codes and presence of an error to a short string label.
func ErrorKind(status int, hasErr bool) string {
	if hasErr && status == 0 {
		return "network_error"
	}
	switch {
	case status == 429:
		return "provider_429"
	case status == 401:
		return "provider_401"
	case status == 403:
		return "provider_403"
	case status >= 500 && status < 600:
		return "provider_5xx"
	case status >= 400 && status < 500:
		return "provider_4xx"
	}
	if hasErr {
		return "error"
	}
	return "ok"
}
