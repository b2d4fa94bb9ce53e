package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// OpResult 为后端业务操作的统一结果。
//
// 业务规则拒绝（例如取消已送达订单）不是系统错误：Success=false + Message
// 说明原因，调用方把它原样转给客户。Go error 只表示存储层故障。
type OpResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func failure(format string, args ...any) *OpResult {
	return &OpResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

func success(message string, data map[string]any) *OpResult {
	return &OpResult{Success: true, Message: message, Data: data}
}

func (s *Storage) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var order Order
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError{Entity: "order", Key: orderID}
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// OrderStatus 返回面向客户的订单状态摘要。
func (s *Storage) OrderStatus(ctx context.Context, orderID string) (*OpResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if IsNotFound(err) {
		return failure("Order #%s not found. Please check the order number.", orderID), nil
	}
	if err != nil {
		return nil, err
	}

	var items []string
	_ = json.Unmarshal([]byte(order.ItemsJSON), &items)

	data := map[string]any{
		"order_id":     order.OrderID,
		"status":       order.Status,
		"items":        items,
		"total":        order.Total,
		"created_date": order.CreatedDate,
	}
	if order.ShippedDate != "" {
		data["shipped_date"] = order.ShippedDate
	}
	return success(fmt.Sprintf("Order #%s is currently %s.", order.OrderID, order.Status), data), nil
}

// CancelOrder 取消订单。已送达的订单不可取消，已取消的订单幂等拒绝；
// 已发货订单仍可取消（客户可拒收，退款照常发起）。
func (s *Storage) CancelOrder(ctx context.Context, orderID string, reason string) (*OpResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if IsNotFound(err) {
		return failure("Order #%s not found. Please check the order number.", orderID), nil
	}
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case "delivered":
		return failure("Cannot cancel delivered order. Please request a return instead."), nil
	case "cancelled":
		return failure("Order #%s is already cancelled.", orderID), nil
	}

	updates := map[string]any{
		"status":              "cancelled",
		"cancelled_date":      time.Now().UTC().Format("2006-01-02"),
		"cancellation_reason": reason,
	}
	if err := s.db.WithContext(ctx).Model(&Order{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return success(fmt.Sprintf("Order #%s has been cancelled. Refund of $%.2f will be processed in 5-7 business days.", orderID, order.Total), map[string]any{
		"order_id": orderID,
		"status":   "cancelled",
	}), nil
}

// ModifyOrder 修改订单收货地址。仅 processing/pending 状态可改。
func (s *Storage) ModifyOrder(ctx context.Context, orderID string, newAddress string) (*OpResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if IsNotFound(err) {
		return failure("Order #%s not found. Please check the order number.", orderID), nil
	}
	if err != nil {
		return nil, err
	}

	if order.Status != "processing" && order.Status != "pending" {
		return failure("Cannot modify order #%s: it is already %s. Orders can only be modified before shipping.", orderID, order.Status), nil
	}

	updates := map[string]any{
		"shipping_address": newAddress,
		"modified_date":    time.Now().UTC().Format("2006-01-02"),
	}
	if err := s.db.WithContext(ctx).Model(&Order{}).Where("order_id = ?", orderID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("modify order: %w", err)
	}
	return success(fmt.Sprintf("Order #%s shipping address updated.", orderID), map[string]any{
		"order_id":    orderID,
		"new_address": newAddress,
	}), nil
}

// InitiateRefund 为订单发起退款，退款单号为 REF + 5 位随机数字。
func (s *Storage) InitiateRefund(ctx context.Context, orderID string, reason string) (*OpResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if IsNotFound(err) {
		return failure("Order #%s not found. Please check the order number.", orderID), nil
	}
	if err != nil {
		return nil, err
	}

	refund := &Refund{
		RefundID:            fmt.Sprintf("REF%d", 10000+rand.Intn(90000)),
		OrderID:             orderID,
		Amount:              order.Total,
		Reason:              reason,
		Status:              "processing",
		InitiatedDate:       time.Now().UTC().Format("2006-01-02"),
		EstimatedCompletion: "5-7 business days",
	}
	if err := s.db.WithContext(ctx).Create(refund).Error; err != nil {
		return nil, fmt.Errorf("insert refund: %w", err)
	}
	return success(fmt.Sprintf("Refund of $%.2f initiated. Expected in 5-7 business days.", order.Total), map[string]any{
		"refund_id": refund.RefundID,
		"order_id":  orderID,
		"amount":    order.Total,
	}), nil
}

// RefundStatus 查询退款进度。
func (s *Storage) RefundStatus(ctx context.Context, refundID string) (*OpResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var refund Refund
	err := s.db.WithContext(ctx).Where("refund_id = ?", refundID).First(&refund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failure("Refund %s not found. Please check the refund ID.", refundID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get refund: %w", err)
	}
	return success(fmt.Sprintf("Refund %s for order #%s is %s. Amount: $%.2f. Estimated completion: %s.",
		refund.RefundID, refund.OrderID, refund.Status, refund.Amount, refund.EstimatedCompletion), map[string]any{
		"refund_id": refund.RefundID,
		"order_id":  refund.OrderID,
		"status":    refund.Status,
		"amount":    refund.Amount,
	}), nil
}

func (s *Storage) GetAccount(ctx context.Context, customerID string) (*Account, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var acc Account
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError{Entity: "account", Key: customerID}
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

// AccountInfo 返回面向客户的账户资料摘要。
func (s *Storage) AccountInfo(ctx context.Context, customerID string) (*OpResult, error) {
	acc, err := s.GetAccount(ctx, customerID)
	if IsNotFound(err) {
		return failure("Account %s not found.", customerID), nil
	}
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Account %s: %s, email %s, phone %s.", acc.CustomerID, acc.Name, acc.Email, acc.Phone), map[string]any{
		"customer_id": acc.CustomerID,
		"email":       acc.Email,
		"name":        acc.Name,
		"phone":       acc.Phone,
		"address":     acc.Address,
	}), nil
}

// UpdateAddress 更新账户默认地址。
func (s *Storage) UpdateAddress(ctx context.Context, customerID string, newAddress string) (*OpResult, error) {
	acc, err := s.GetAccount(ctx, customerID)
	if IsNotFound(err) {
		return failure("Account %s not found.", customerID), nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&Account{}).Where("customer_id = ?", acc.CustomerID).
		Update("address", newAddress).Error; err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return success(fmt.Sprintf("Address for account %s updated.", acc.CustomerID), map[string]any{
		"customer_id": acc.CustomerID,
		"new_address": newAddress,
	}), nil
}

// ResetPassword 向账户邮箱发送重置链接（模拟，不真正发信）。
func (s *Storage) ResetPassword(ctx context.Context, customerID string) (*OpResult, error) {
	acc, err := s.GetAccount(ctx, customerID)
	if IsNotFound(err) {
		return failure("Account %s not found.", customerID), nil
	}
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Password reset link sent to %s.", acc.Email), map[string]any{
		"customer_id": acc.CustomerID,
		"email":       acc.Email,
	}), nil
}

// Seed 写入演示用的订单与账户数据；幂等，可重复调用。
func (s *Storage) Seed(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}

	orders := []Order{
		{
			OrderID:         "12345",
			CustomerID:      "CUST001",
			Status:          "shipped",
			ItemsJSON:       `["Laptop","Mouse"]`,
			Total:           1299.99,
			ShippingAddress: "123 Main St, City, State 12345",
			CreatedDate:     "2024-11-20",
			ShippedDate:     "2024-11-22",
		},
		{
			OrderID:         "67890",
			CustomerID:      "CUST002",
			Status:          "processing",
			ItemsJSON:       `["Phone Case"]`,
			Total:           29.99,
			ShippingAddress: "456 Oak Ave, Town, State 67890",
			CreatedDate:     "2024-11-28",
		},
	}
	for i := range orders {
		if err := s.db.WithContext(ctx).
			Where("order_id = ?", orders[i].OrderID).
			FirstOrCreate(&orders[i]).Error; err != nil {
			return fmt.Errorf("seed order %s: %w", orders[i].OrderID, err)
		}
	}

	accounts := []Account{
		{
			CustomerID: "CUST001",
			Email:      "customer1@example.com",
			Name:       "John Doe",
			Phone:      "+1-555-0001",
			Address:    "123 Main St, City, State 12345",
		},
		{
			CustomerID: "CUST002",
			Email:      "customer2@example.com",
			Name:       "Jane Smith",
			Phone:      "+1-555-0002",
			Address:    "456 Oak Ave, Town, State 67890",
		},
	}
	for i := range accounts {
		if err := s.db.WithContext(ctx).
			Where("customer_id = ?", accounts[i].CustomerID).
			FirstOrCreate(&accounts[i]).Error; err != nil {
			return fmt.Errorf("seed account %s: %w", accounts[i].CustomerID, err)
		}
	}
	return nil
}
