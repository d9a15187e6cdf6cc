package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/teamsite/pkg/logger"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+":"+msg)
}

func (r *recordingLogger) Info(_ context.Context, msg string, _ ...logger.Field)  { r.add("info", msg) }
func (r *recordingLogger) Error(_ context.Context, msg string, _ ...logger.Field) { r.add("error", msg) }
func (r *recordingLogger) Debug(_ context.Context, msg string, _ ...logger.Field) { r.add("debug", msg) }
func (r *recordingLogger) Warn(_ context.Context, msg string, _ ...logger.Field)  { r.add("warn", msg) }
func (r *recordingLogger) Named(string) logger.Logger                             { return r }
func (r *recordingLogger) With(...logger.Field) logger.Logger                     { return r }

func TestGormLogger(t *testing.T) {
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	Convey("Given the gorm log adapter at warn level", t, func() {
		rec := &recordingLogger{}
		g := newGormLogger(rec, 100*time.Millisecond)

		Convey("Failed queries are logged as errors", func() {
			g.Trace(ctx, time.Now(), sql, errors.New("boom"))
			So(rec.lines, ShouldResemble, []string{"error:query failed"})
		})

		Convey("Slow queries are logged as warnings", func() {
			g.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
			So(rec.lines, ShouldResemble, []string{"warn:slow query"})
		})

		Convey("Fast queries are dropped", func() {
			g.Trace(ctx, time.Now(), sql, nil)
			So(rec.lines, ShouldBeEmpty)
		})

		Convey("LogMode returns a copy", func() {
			silent := g.LogMode(gormlogger.Silent)
			silent.Trace(ctx, time.Now(), sql, errors.New("boom"))
			silent.Error(ctx, "ignored %d", 1)
			So(rec.lines, ShouldBeEmpty)
			g.Error(ctx, "kept %d", 1)
			So(rec.lines, ShouldResemble, []string{"error:kept 1"})
		})
	})
}
