package helpers

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerOptions configures NewLogger. Level overrides the env default when it
// parses; Out defaults to stdout.
type LoggerOptions struct {
	AppName string
	Env     string
	Level   string
	Out     io.Writer
}

// NewLogger creates a configured Logrus logger. Every entry carries the
// service name so API, seed and worker lines can be told apart.
func NewLogger(o LoggerOptions) *logrus.Logger {
	logger := logrus.New()
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)
	if o.Env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	var badLevel error
	if o.Level != "" {
		lvl, err := logrus.ParseLevel(strings.TrimSpace(o.Level))
		if err != nil {
			badLevel = err
		} else {
			logger.SetLevel(lvl)
		}
	}
	logger.AddHook(serviceHook{service: o.AppName})
	if badLevel != nil {
		logger.WithError(badLevel).Warn("invalid log level, using default")
	}
	logger.WithField("env", o.Env).Info("logger initialized")
	return logger
}

type serviceHook struct{ service string }

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok && h.service != "" {
		e.Data["service"] = h.service
	}
	return nil
}

// FlowLogger returns an entry tagged with the auth flow and the subject email.
func FlowLogger(logger logrus.FieldLogger, flow, email string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"flow": flow, "email": email})
}

// LogError writes msg at error level with err folded into fields.
func LogError(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	f := logrus.Fields{}
	for k, v := range fields {
		f[k] = v
	}
	if err != nil {
		f[logrus.ErrorKey] = err.Error()
	}
	logger.WithFields(f).Error(msg)
}

func LogInfo(logger logrus.FieldLogger, msg string, fields logrus.Fields) {
	logger.WithFields(fields).Info(msg)
}
