// Package appointment 提供预约相关服务
package appointment

import "errors"

// 预约模块错误定义
var (
	ErrAppointmentNotFound = errors.New("预约不存在")
	ErrNoServices          = errors.New("预约至少需要一个服务项目")
	ErrNotService          = errors.New("仅服务项目可以预约")
	ErrServiceInactive     = errors.New("服务项目已下架")
	ErrPastTime            = errors.New("不能预约过去的时间")
	ErrStoreClosed         = errors.New("门店在该时段不营业")
	ErrStylistUnavailable  = errors.New("造型师在该时段不可约")
	ErrTimeConflict        = errors.New("该时段已有其他预约")
	ErrInvalidTransition   = errors.New("不允许的状态变更")
	ErrCheckInCodeInvalid  = errors.New("到店码无效")
	ErrNotConfirmed        = errors.New("仅已确认的预约可以到店报到")
)
