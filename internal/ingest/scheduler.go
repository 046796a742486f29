// 包 ingest：在常驻进程中按周重复执行离线导入
package ingest

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"geonames-sync/internal/logger"
)

// Schedule：每周固定星期与整点
type Schedule struct {
	Location *time.Location
	Weekday  time.Weekday
	Hour     int
}

// Next：计算 now 之后的下一次触发时间（不含当前已过时的当周）
// 约束：基于 Location 与整点 Hour；仅前推至未来时间
func (s Schedule) Next(now time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() == s.Weekday {
			t := time.Date(d.Year(), d.Month(), d.Day(), s.Hour, 0, 0, 0, loc)
			if t.After(now) {
				return t
			}
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), s.Hour, 0, 0, 0, loc)
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// ScheduleFromEnv：默认 UTC 每周一 3:00
// 约束：INGEST_TZ / INGEST_WEEKDAY / INGEST_HOUR 覆盖；解析失败时保留默认值
func ScheduleFromEnv() Schedule {
	s := Schedule{Location: time.UTC, Weekday: time.Monday, Hour: 3}
	if tz := os.Getenv("INGEST_TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			s.Location = loc
		}
	}
	if wd, ok := weekdays[strings.ToLower(strings.TrimSpace(os.Getenv("INGEST_WEEKDAY")))]; ok {
		s.Weekday = wd
	}
	if h := os.Getenv("INGEST_HOUR"); h != "" {
		if n, err := strconv.Atoi(h); err == nil && n >= 0 && n < 24 {
			s.Hour = n
		}
	}
	return s
}

// RunWeekly：阻塞执行，每到触发时间调用一次 job，直到 ctx 取消
// 背景：GeoNames 转储定期更新；错误由日志记录，任务继续调度
func RunWeekly(ctx context.Context, s Schedule, job func(context.Context) error) error {
	l := logger.L()
	next := s.Next(time.Now())
	for {
		l.Info("ingest_scheduled", "next", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.Info("ingest_start", "at", next)
		if err := job(ctx); err != nil {
			l.Error("ingest_error", "err", err)
		} else {
			l.Info("ingest_done")
		}
		next = s.Next(time.Now())
	}
}
