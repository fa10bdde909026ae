package logger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dwarvesf/walletpay-backend/internal/types/environments"
)

var _ = Describe("Logger configs", func() {
	type expected struct {
		level    zapcore.Level
		encoding string
		quiet    bool
		caller   bool
	}

	DescribeTable("per environment",
		func(build func() zap.Config, want expected) {
			cfg := build()

			Expect(cfg.Level.Level()).To(Equal(want.level))
			Expect(cfg.Encoding).To(Equal(want.encoding))
			Expect(cfg.DisableCaller).To(Equal(!want.caller))
			if want.quiet {
				Expect(cfg.OutputPaths).To(BeEmpty())
				Expect(cfg.ErrorOutputPaths).To(BeEmpty())
			} else {
				Expect(cfg.OutputPaths).To(Equal([]string{"stdout"}))
				Expect(cfg.ErrorOutputPaths).To(Equal([]string{"stderr"}))
			}
		},
		Entry("production", newProductionLoggerConfig, expected{zap.InfoLevel, "json", false, true}),
		Entry("staging", newStagingLoggerConfig, expected{zap.InfoLevel, "json", false, false}),
		Entry("development", newDevelopmentLoggerConfig, expected{zap.DebugLevel, "console", false, false}),
		Entry("test", newTestLoggerConfig, expected{zap.InfoLevel, "json", true, true}),
	)

	It("should write ISO8601 timestamps under the timestamp key in json output", func() {
		cfg := newProductionLoggerConfig()
		Expect(cfg.EncoderConfig.TimeKey).To(Equal("timestamp"))
		Expect(newStagingLoggerConfig().EncoderConfig.TimeKey).To(Equal("timestamp"))
	})

	DescribeTable("environments.Parse",
		func(raw string, want environments.Environment, deployed bool) {
			env := environments.Parse(raw)
			Expect(env).To(Equal(want))
			Expect(env.IsDeployed()).To(Equal(deployed))
		},
		Entry("production", "production", environments.Production, true),
		Entry("staging", "staging", environments.Staging, true),
		Entry("test", "test", environments.Test, false),
		Entry("empty falls back to development", "", environments.Development, false),
		Entry("unknown falls back to development", "qa", environments.Development, false),
	)
})
