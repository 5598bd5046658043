package utils

import (
	"os"
	"strings"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func InitializeLogging(logLevel, component string) logr.Logger {
	var opts zap.Options

	// Setup logging
	switch strings.TrimSpace(logLevel) {
	case "info":
		opts = zap.Options{
			Development: false,
		}
	case "debug":
		opts = zap.Options{
			Development: true,
		}
	case "trace":
		opts = zap.Options{
			Development: true,
			Level:       zapcore.Level(-2),
		}
	default:
		// Default to Info
		opts = zap.Options{
			Development: false,
		}
	}

	// Juju captures stderr of the hook into the unit log, stdout is reserved
	// for hook tool output.
	opts.DestWriter = os.Stderr

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	return ctrl.Log.WithName(component)
}

// AppNameFromUnit strips the unit number from a unit name ("oai-5g-cu/0" -> "oai-5g-cu").
func AppNameFromUnit(unitName string) string {
	if i := strings.LastIndex(unitName, "/"); i >= 0 {
		return unitName[:i]
	}
	return unitName
}

// EnvOrDefault returns the trimmed value of an environment variable or the
// given default if it is unset or empty.
func EnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
