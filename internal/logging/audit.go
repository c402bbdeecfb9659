package logging

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Audit is a separate log sink for security/protocol-violation events:
// second identify, abort-by-non-lessee, framing errors. Kept apart from the operational zerolog stream so audit
// trails survive log-level changes and rotate independently, grounded on
// cppla-moto's zap+lumberjack logger.
type Audit struct {
	log *zap.Logger
}

// NewAudit builds an audit logger writing rotated JSON to path. If path is
// empty, audit events go to stderr instead (development default).
func NewAudit(path string, component string) *Audit {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var sink zapcore.WriteSyncer
	if path != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	} else {
		sink = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, sink, zapcore.InfoLevel)
	return &Audit{log: zap.New(core).With(zap.String("component", component))}
}

// Event logs a single audit-worthy occurrence with structured fields.
func (a *Audit) Event(kind, message string, fields map[string]any) {
	zf := make([]zap.Field, 0, len(fields)+1)
	zf = append(zf, zap.String("kind", kind))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	a.log.Info(message, zf...)
}

// Sync flushes any buffered log entries. Call on shutdown.
func (a *Audit) Sync() error {
	return a.log.Sync()
}
