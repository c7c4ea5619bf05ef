package logger

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dwarvesf/drain-watcher/internal/types/environments"
)

type customWriteHook struct {
	called bool
}

func (h *customWriteHook) OnWrite(_ *zapcore.CheckedEntry, _ []zapcore.Field) {
	h.called = true
}

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{wrappedLogger: zap.New(core)}, logs
}

var _ = Describe("Logger", func() {
	Describe("#New", func() {
		DescribeTable("should build a logger for every environment",
			func(env environments.Environment, debugEnabled bool) {
				logger := New(env)
				Expect(logger).NotTo(BeNil())
				Expect(logger.wrappedLogger).NotTo(BeNil())
				if env != environments.Test {
					Expect(logger.wrappedLogger.Core().Enabled(zapcore.DebugLevel)).To(Equal(debugEnabled))
				}
			},
			Entry("production", environments.Production, false),
			Entry("staging", environments.Staging, true),
			Entry("development", environments.Development, true),
			Entry("test", environments.Test, false),
			Entry("unknown falls back to production", environments.Environment("unknown"), false),
		)
	})

	Describe("#NewNop", func() {
		It("should create a logger that discards every entry", func() {
			logger := NewNop()
			Expect(logger).NotTo(BeNil())
			Expect(logger.wrappedLogger.Core().Enabled(zapcore.ErrorLevel)).To(BeFalse())
			Expect(func() { logger.Error("dropped", map[string]string{"k": "v"}) }).NotTo(Panic())
		})
	})

	Describe("leveled methods", func() {
		It("should write message, level and fields", func() {
			logger, logs := observed(zapcore.DebugLevel)

			logger.Debug("[Scan] debug", map[string]string{"address": "0xabc"})
			logger.Info("[Scan] info")
			logger.Warn("[Scan] warn", map[string]string{"count": "2"})
			logger.Error("[Scan] error", map[string]string{"error": "boom"})

			entries := logs.AllUntimed()
			Expect(entries).To(HaveLen(4))
			Expect(entries[0].Level).To(Equal(zapcore.DebugLevel))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("address", "0xabc"))
			Expect(entries[1].Message).To(Equal("[Scan] info"))
			Expect(entries[1].Context).To(BeEmpty())
			Expect(entries[2].Level).To(Equal(zapcore.WarnLevel))
			Expect(entries[3].ContextMap()).To(HaveKeyWithValue("error", "boom"))
		})

		It("should only use the first field map", func() {
			logger, logs := observed(zapcore.InfoLevel)

			logger.Info("two maps", map[string]string{"a": "1"}, map[string]string{"b": "2"})

			Expect(logs.All()[0].ContextMap()).To(Equal(map[string]interface{}{"a": "1"}))
		})

		It("should drop entries below the configured level", func() {
			logger, logs := observed(zapcore.InfoLevel)
			logger.Debug("hidden")
			Expect(logs.Len()).To(Equal(0))
		})
	})

	Describe("#With", func() {
		It("should return a child logger carrying the fields", func() {
			logger, logs := observed(zapcore.InfoLevel)

			child := logger.With(map[string]string{"job_name": "watch_scan"})
			child.Info("[Execute] started", map[string]string{"attempt": "1"})
			logger.Info("parent")

			entries := logs.All()
			Expect(entries[0].ContextMap()).To(Equal(map[string]interface{}{"job_name": "watch_scan", "attempt": "1"}))
			Expect(entries[1].Context).To(BeEmpty())
		})
	})

	Describe("#Fatal", func() {
		It("should log fatal messages through the fatal hook", func() {
			hook := &customWriteHook{}
			logger := &Logger{wrappedLogger: zap.New(
				zapcore.NewCore(
					zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
					zapcore.AddSync(&bytes.Buffer{}),
					zap.FatalLevel,
				),
				zap.WithFatalHook(hook),
			)}

			logger.Fatal("fatal message", map[string]string{"key": "value"})
			Expect(hook.called).To(BeTrue())
		})
	})

	Describe("#transformStrMapToFields", func() {
		It("should emit fields in key order", func() {
			fields := transformStrMapToFields(map[string]string{
				"txHash":  "0x2",
				"address": "0x1",
				"error":   "boom",
			})

			Expect(fields).To(Equal([]zap.Field{
				zap.String("address", "0x1"),
				zap.String("error", "boom"),
				zap.String("txHash", "0x2"),
			}))
		})

		It("should return an empty slice for an empty input map", func() {
			Expect(transformStrMapToFields(map[string]string{})).To(BeEmpty())
		})
	})
})
