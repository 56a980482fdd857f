package logger_test

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbcore/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should create a logger for every known level", func() {
			for _, level := range []string{"debug", "info", "warn", "error"} {
				Expect(logger.New(level, false, "dev")).NotTo(BeNil())
			}
		})

		It("should default to info for an invalid level", func() {
			log := logger.New("invalid", false, "dev")

			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeTrue())
			Expect(log.Enabled(nil, slog.LevelDebug)).To(BeFalse())
		})

		It("should create a prod logger", func() {
			Expect(logger.New("info", false, "prod")).NotTo(BeNil())
		})

		It("should support the addSource option", func() {
			Expect(logger.New("info", true, "dev")).NotTo(BeNil())
		})

		It("should respect the debug level", func() {
			log := logger.New("debug", false, "dev")

			Expect(log.Enabled(nil, slog.LevelDebug)).To(BeTrue())
			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeTrue())
		})

		It("should respect the warn level", func() {
			log := logger.New("warn", false, "dev")

			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(nil, slog.LevelWarn)).To(BeTrue())
		})

		It("should respect the error level", func() {
			log := logger.New("error", false, "dev")

			Expect(log.Enabled(nil, slog.LevelWarn)).To(BeFalse())
			Expect(log.Enabled(nil, slog.LevelError)).To(BeTrue())
		})

		It("should be case-insensitive about levels", func() {
			log := logger.New("WARN", false, "dev")

			Expect(log.Enabled(nil, slog.LevelWarn)).To(BeTrue())
			Expect(log.Enabled(nil, slog.LevelInfo)).To(BeFalse())
		})
	})
})
