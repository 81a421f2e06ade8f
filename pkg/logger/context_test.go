package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oit-infosec/awareness-compliance/pkg/logger"
)

var _ = Describe("Context logger", func() {
	var (
		buf *bytes.Buffer
		l   *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		l = slog.New(slog.NewTextHandler(buf, nil))
	})

	Context("Into and Or", func() {
		It("should return the stored logger over the fallback", func() {
			ctx := logger.Into(context.Background(), l)

			logger.Or(ctx, slog.Default()).Info("stored wins")
			Expect(buf.String()).To(ContainSubstring("stored wins"))
		})

		It("should fall back when the context carries no logger", func() {
			Expect(logger.Or(context.Background(), l)).To(BeIdenticalTo(l))
		})
	})

	Context("With", func() {
		It("should derive the stored logger with extra fields", func() {
			ctx := logger.Into(context.Background(), l)
			ctx = logger.With(ctx, "run_id", "reconcile-1")

			logger.From(ctx).Info("scoped line")
			Expect(buf.String()).To(ContainSubstring("run_id=reconcile-1"))
			Expect(buf.String()).To(ContainSubstring("scoped line"))
		})
	})
})
