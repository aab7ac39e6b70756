// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrTokenRefreshFail = New(2003, "刷新令牌失败")
	ErrPermissionDenied = New(2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
	ErrPasswordError    = New(2006, "密码错误")
	ErrCodeError        = New(2007, "验证码错误")
	ErrCodeExpired      = New(2008, "验证码已过期")
	ErrSmsSendFail      = New(2009, "短信发送失败")
	ErrSmsSendTooFast   = New(2010, "短信发送过于频繁")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound     = New(3000, "用户不存在")
	ErrUserExists       = New(3001, "用户名已被注册")
	ErrEmailExists      = New(3002, "邮箱已被注册")
	ErrNotStylist       = New(3003, "该用户不是造型师")
	ErrRoleInvalid      = New(3004, "无效的角色")
	ErrAccountBound     = New(3005, "第三方账号已绑定")
	ErrAccountNotBound  = New(3006, "第三方账号未绑定")
	ErrUserDeactivated  = New(3007, "账号已停用")
)

// 商品与服务错误码 (4000-4999)
var (
	ErrProductNotFound   = New(4000, "商品不存在")
	ErrProductInactive   = New(4001, "商品已下架")
	ErrNotService        = New(4002, "该商品不是服务项目")
	ErrStockInsufficient = New(4003, "库存不足")
	ErrDurationMissing   = New(4004, "服务项目缺少时长设置")
	ErrUploadFailed      = New(4005, "文件上传失败")
)

// 优惠券错误码 (5000-5999)
var (
	ErrCouponNotFound     = New(5000, "优惠券不存在")
	ErrCouponDisabled     = New(5001, "优惠券已停用")
	ErrCouponNotStarted   = New(5002, "优惠券尚未生效")
	ErrCouponExpired      = New(5003, "优惠券已过期")
	ErrCouponLimitReached = New(5004, "优惠券使用次数已达上限")
	ErrCouponMinAmount    = New(5005, "订单金额未达优惠券使用门槛")
	ErrCouponCodeExists   = New(5006, "优惠券代码已存在")
	ErrCouponValueInvalid = New(5007, "无效的优惠券面额")
	ErrCouponInUse        = New(5008, "优惠券已被订单使用，无法删除")
)

// 订单错误码 (6000-6999)
var (
	ErrOrderNotFound      = New(6000, "订单不存在")
	ErrOrderStatusError   = New(6001, "订单状态异常")
	ErrOrderCancelled     = New(6002, "订单已取消")
	ErrOrderCannotCancel  = New(6003, "订单无法取消")
	ErrOrderDetailEmpty   = New(6004, "订单明细不能为空")
	ErrOrderDetailMissing = New(6005, "订单明细不存在")
	ErrOrderNoCoupon      = New(6006, "订单未使用优惠券")
)

// 排班与可用性错误码 (7000-7999)
var (
	ErrScheduleNotFound  = New(7000, "排班不存在")
	ErrScheduleConflict  = New(7001, "该造型师当天已有排班")
	ErrScheduleInvalid   = New(7002, "无效的排班时段")
	ErrTimeOffNotFound   = New(7003, "休假申请不存在")
	ErrTimeOffInvalid    = New(7004, "无效的休假时段")
	ErrTimeOffProcessed  = New(7005, "休假申请已处理")
	ErrStylistNotWorking = New(7006, "造型师该时段不上班")
)

// 门店错误码 (8000-8999)
var (
	ErrBusinessHourNotFound = New(8000, "营业时间未设置")
	ErrBusinessHourInvalid  = New(8001, "无效的营业时间")
	ErrClosureNotFound      = New(8002, "休业记录不存在")
	ErrClosureInvalid       = New(8003, "无效的休业时段")
	ErrStoreClosed          = New(8004, "门店该时段未营业")
)

// 预约错误码 (9000-9999)
var (
	ErrAppointmentNotFound    = New(9000, "预约不存在")
	ErrAppointmentConflict    = New(9001, "该时段已被预约")
	ErrAppointmentStatusError = New(9002, "预约状态异常")
	ErrAppointmentNoServices  = New(9003, "预约未选择服务项目")
	ErrAppointmentInPast      = New(9004, "无法预约过去的时间")
	ErrCheckInCodeInvalid     = New(9005, "无效的到店核销码")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
