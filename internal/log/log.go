package log

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

// Init builds the process logger. Production gets JSON, anything else a
// human-friendly console encoder.
func Init(env, level string) error {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.Fields(zap.String("service", "oakline")))
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	mu.Unlock()
	zap.ReplaceGlobals(l)
	return nil
}

func logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base, _ = zap.NewProduction()
	}
	return base
}

func common(c *fiber.Ctx, action string, fields map[string]any) []zap.Field {
	zf := []zap.Field{zap.String("action", action)}
	if c != nil {
		zf = append(zf,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			zf = append(zf, zap.String("req_id", rid))
		}
	}
	if len(fields) > 0 {
		zf = append(zf, zap.Any("fields", fields))
	}
	return zf
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	logger().Info(action, common(c, action, fields)...)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	logger().Info(action, append(common(c, action, fields), zap.String("kind", "audit"))...)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	logger().Warn(action, common(c, action, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	logger().Error(action, append(common(c, action, fields), zap.Error(err))...)
}
