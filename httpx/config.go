package httpx

import "github.com/gin-gonic/gin"

const errorLoggingKey = "httpx:error_logging"

// ErrorLoggingConfig controls whether HandleError logs the errors it maps.
type ErrorLoggingConfig struct {
	Enable           bool   `mapstructure:"enable" json:"enable"`
	IgnoreHTTPStatus []int  `mapstructure:"ignore_http_status" json:"ignore_http_status"`
	FullErrorChain   bool   `mapstructure:"full_error_chain" json:"full_error_chain"`
	LogLevel         string `mapstructure:"log_level" json:"log_level"`
}

// DefaultErrorLoggingConfig has logging off.
func DefaultErrorLoggingConfig() ErrorLoggingConfig {
	return ErrorLoggingConfig{FullErrorChain: true, LogLevel: "error"}
}

type errorLogging struct {
	ErrorLoggingConfig
	ignore map[int]bool
}

func (e errorLogging) shouldLog(status int) bool {
	return e.Enable && !e.ignore[status]
}

// ErrorLoggingMiddleware makes cfg visible to HandleError for the request.
func ErrorLoggingMiddleware(cfg ErrorLoggingConfig) gin.HandlerFunc {
	prepared := errorLogging{ErrorLoggingConfig: cfg, ignore: make(map[int]bool, len(cfg.IgnoreHTTPStatus))}
	for _, status := range cfg.IgnoreHTTPStatus {
		prepared.ignore[status] = true
	}
	return func(c *gin.Context) {
		c.Set(errorLoggingKey, prepared)
		c.Next()
	}
}

func errorLoggingFrom(c *gin.Context) errorLogging {
	if v, ok := c.Get(errorLoggingKey); ok {
		if cfg, ok := v.(errorLogging); ok {
			return cfg
		}
	}
	return errorLogging{ErrorLoggingConfig: DefaultErrorLoggingConfig()}
}
