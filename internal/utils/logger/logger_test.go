package logger

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dwarvesf/walletpay-backend/internal/types/environments"
)

type fatalHook struct {
	called bool
}

func (h *fatalHook) OnWrite(_ *zapcore.CheckedEntry, _ []zapcore.Field) {
	h.called = true
}

var _ = Describe("Logger", func() {
	var (
		logger *Logger
		logs   *observer.ObservedLogs
	)

	BeforeEach(func() {
		core, observed := observer.New(zapcore.DebugLevel)
		logger = &Logger{wrappedLogger: zap.New(core)}
		logs = observed
	})

	Describe("#New", func() {
		DescribeTable("builds a usable logger",
			func(env environments.Environment) {
				l := New(env)
				Expect(l).NotTo(BeNil())
				Expect(l.wrappedLogger).NotTo(BeNil())
			},
			Entry("production", environments.Production),
			Entry("staging", environments.Staging),
			Entry("development", environments.Development),
			Entry("test", environments.Test),
		)

		It("should fall back to production settings for an unknown environment", func() {
			core := New(environments.Environment("unknown")).wrappedLogger.Core()
			Expect(core.Enabled(zapcore.InfoLevel)).To(BeTrue())
			Expect(core.Enabled(zapcore.DebugLevel)).To(BeFalse())
		})
	})

	Describe("levels", func() {
		It("should write each method at its own level", func() {
			logger.Debug("[Connect][Start]")
			logger.Info("[Connect][Done]")
			logger.Warn("[RefreshBalance][Retry]")
			logger.Error("[SubmitTransfer][adapter]")

			levels := []zapcore.Level{}
			for _, e := range logs.All() {
				levels = append(levels, e.Level)
			}
			Expect(levels).To(Equal([]zapcore.Level{
				zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel,
			}))
		})

		It("should call the fatal hook instead of exiting", func() {
			hook := &fatalHook{}
			logger.wrappedLogger = zap.New(
				zapcore.NewCore(
					zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
					zapcore.AddSync(&bytes.Buffer{}),
					zap.FatalLevel,
				),
				zap.WithFatalHook(hook),
			)

			logger.Fatal("[pgstore.New][Open]", map[string]string{"error": "refused"})
			Expect(hook.called).To(BeTrue())
		})
	})

	Describe("fields", func() {
		It("should turn the field map into string fields", func() {
			logger.Info("[PrepareTransfer]", map[string]string{"chain": "ethereum", "chain_ref": "1"})

			Expect(logs.Len()).To(Equal(1))
			Expect(logs.All()[0].ContextMap()).To(Equal(map[string]interface{}{
				"chain":     "ethereum",
				"chain_ref": "1",
			}))
		})

		It("should only use the first field map", func() {
			logger.Info("[PrepareTransfer]", map[string]string{"a": "1"}, map[string]string{"b": "2"})

			Expect(logs.All()[0].ContextMap()).To(HaveKey("a"))
			Expect(logs.All()[0].ContextMap()).NotTo(HaveKey("b"))
		})

		It("should attach fields passed to With on every entry", func() {
			child := logger.With(map[string]string{"chain": "solana"})
			child.Info("[RefreshBalance][Done]", map[string]string{"account": "abc"})
			child.Warn("[RefreshBalance][Retry]")

			Expect(logs.Len()).To(Equal(2))
			for _, e := range logs.All() {
				Expect(e.ContextMap()).To(HaveKeyWithValue("chain", "solana"))
			}
			Expect(logs.All()[0].ContextMap()).To(HaveKeyWithValue("account", "abc"))
		})

		It("should return no fields for an empty map", func() {
			Expect(transformStrMapToFields(map[string]string{})).To(BeEmpty())
			Expect(fieldsOf(nil)).To(BeEmpty())
		})
	})

	It("should discard everything with NewNop", func() {
		Expect(func() {
			NewNop().Error("dropped", map[string]string{"k": "v"})
		}).NotTo(Panic())
	})
})
