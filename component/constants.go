package component

// Component names
const (
	ComponentConfig     = "config"
	ComponentLogger     = "logger"
	ComponentTelemetry  = "telemetry"
	ComponentKafka      = "kafka"
	ComponentEvent      = "event"
	ComponentPlayground = "playground"
)
