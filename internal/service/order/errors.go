// Package order 提供订单与计价相关服务
package order

import "errors"

// 订单模块错误定义
var (
	ErrOrderNotFound       = errors.New("订单不存在")
	ErrOrderDetailNotFound = errors.New("订单明细不存在")
	ErrOrderEmpty          = errors.New("订单至少需要一个项目")
	ErrOrderNotPending     = errors.New("仅待处理订单可以修改")
	ErrInvalidTransition   = errors.New("不允许的状态变更")
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductInactive     = errors.New("商品已下架")
	ErrStockInsufficient   = errors.New("商品库存不足")
	ErrQuantityInvalid     = errors.New("数量必须大于零")
	ErrAppointmentNotFound = errors.New("预约不存在")
)
