// Package marketing 提供优惠券相关服务
package marketing

import "errors"

// 优惠券模块错误定义
var (
	ErrCouponNotFound      = errors.New("优惠券不存在")
	ErrCouponDisabled      = errors.New("优惠券已停用")
	ErrCouponNotStarted    = errors.New("优惠券活动未开始")
	ErrCouponExpired       = errors.New("优惠券已过期")
	ErrCouponUsedUp        = errors.New("优惠券使用次数已用尽")
	ErrCouponAmountNotMet  = errors.New("未达到使用门槛")
	ErrCouponCodeExists    = errors.New("优惠码已存在")
	ErrCouponValueInvalid  = errors.New("优惠力度不合法")
	ErrCouponWindowInvalid = errors.New("优惠券起止时间不合法")
	ErrCouponInUse         = errors.New("优惠券已被订单引用，无法删除")
)
