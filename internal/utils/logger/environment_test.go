package logger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ = Describe("Logger Environment", func() {
	DescribeTable("level and encoding per environment",
		func(build func() zap.Config, level zapcore.Level, encoding string, outputs []string) {
			cfg := build()

			Expect(cfg.Level.Level()).To(Equal(level))
			Expect(cfg.Encoding).To(Equal(encoding))
			if len(outputs) == 0 {
				Expect(cfg.OutputPaths).To(BeEmpty())
				Expect(cfg.ErrorOutputPaths).To(BeEmpty())
			} else {
				Expect(cfg.OutputPaths).To(Equal(outputs))
				Expect(cfg.ErrorOutputPaths).To(Equal([]string{"stderr"}))
			}
		},
		Entry("production", newProductionLoggerConfig, zap.InfoLevel, "json", []string{"stdout"}),
		Entry("staging", newStagingLoggerConfig, zap.DebugLevel, "json", []string{"stdout"}),
		Entry("development", newDevelopmentLoggerConfig, zap.DebugLevel, "console", []string{"stdout"}),
		Entry("test", newTestLoggerConfig, zap.InfoLevel, "json", nil),
	)

	Describe("#newProductionLoggerConfig", func() {
		It("should never sample entries away", func() {
			Expect(newProductionLoggerConfig().Sampling).To(BeNil())
		})

		It("should tag every entry with the service name", func() {
			cfg := newProductionLoggerConfig()
			Expect(cfg.InitialFields).To(HaveKeyWithValue("service", serviceName))
			Expect(cfg.EncoderConfig.MessageKey).To(Equal("message"))
		})
	})

	Describe("#newStagingLoggerConfig", func() {
		It("should keep callers but drop stack traces", func() {
			cfg := newStagingLoggerConfig()
			Expect(cfg.DisableCaller).To(BeFalse())
			Expect(cfg.DisableStacktrace).To(BeTrue())
			Expect(cfg.Sampling).To(BeNil())
		})
	})

	Describe("#newDevelopmentLoggerConfig", func() {
		It("should be a development config without callers or stack traces", func() {
			cfg := newDevelopmentLoggerConfig()
			Expect(cfg.Development).To(BeTrue())
			Expect(cfg.DisableCaller).To(BeTrue())
			Expect(cfg.DisableStacktrace).To(BeTrue())
		})
	})
})
