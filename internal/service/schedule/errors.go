// Package schedule 提供排班、休假与可用时段服务
package schedule

import "errors"

// 排班模块错误定义
var (
	ErrScheduleNotFound  = errors.New("排班不存在")
	ErrInvalidDayOfWeek  = errors.New("星期编码必须在 0 到 6 之间")
	ErrInvalidTimeRange  = errors.New("开始时间必须早于结束时间")
	ErrInvalidDuration   = errors.New("时长必须大于零")
	ErrTimeOffNotFound   = errors.New("休假申请不存在")
	ErrTimeOffNotPending = errors.New("仅待审批的休假可以操作")
)
