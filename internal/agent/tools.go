package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// 动作名与必填参数表。动作步骤先校验再执行，缺参时反问客户而不是猜测。
var actionRequiredParams = map[string][]string{
	"check_order_status":  {"order_id"},
	"cancel_order":        {"order_id"},
	"modify_order":        {"order_id", "new_address"},
	"initiate_refund":     {"order_id"},
	"check_refund_status": {"refund_id"},
	"update_address":      {"customer_id", "new_address"},
	"reset_password":      {"customer_id"},
	"get_account_info":    {"customer_id"},
}

// marshalResult 把后端结果编码为工具输出。工具层不产生业务错误，
// 业务规则拒绝以 success=false 的 JSON 原样返回给上层。
func marshalResult(res *storage.OpResult) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// CheckOrderStatusTool 查询订单状态
type CheckOrderStatusTool struct {
	store *storage.Storage
}

func (t *CheckOrderStatusTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "check_order_status",
		Desc: "Check the current status of an order, including items, total, and shipping dates.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {
				Desc:     "The order number, digits only (e.g. '12345')",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *CheckOrderStatusTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.OrderStatus(ctx, args.OrderID)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// CancelOrderTool 取消订单
type CancelOrderTool struct {
	store *storage.Storage
}

func (t *CancelOrderTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "cancel_order",
		Desc: "Cancel an order that has not shipped yet. Shipped or delivered orders cannot be cancelled.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {
				Desc:     "The order number to cancel",
				Type:     schema.String,
				Required: true,
			},
			"reason": {
				Desc:     "The customer's stated reason for cancelling",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CancelOrderTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		OrderID string `json:"order_id"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Reason == "" {
		args.Reason = "customer request"
	}

	res, err := t.store.CancelOrder(ctx, args.OrderID, args.Reason)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// ModifyOrderTool 修改订单收货地址
type ModifyOrderTool struct {
	store *storage.Storage
}

func (t *ModifyOrderTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "modify_order",
		Desc: "Change the shipping address of an order that is still processing or pending.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {
				Desc:     "The order number to modify",
				Type:     schema.String,
				Required: true,
			},
			"new_address": {
				Desc:     "The new shipping address",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *ModifyOrderTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		OrderID    string `json:"order_id"`
		NewAddress string `json:"new_address"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.ModifyOrder(ctx, args.OrderID, args.NewAddress)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// InitiateRefundTool 发起退款
type InitiateRefundTool struct {
	store *storage.Storage
}

func (t *InitiateRefundTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "initiate_refund",
		Desc: "Initiate a refund for an order. Refunds complete in 5-7 business days.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {
				Desc:     "The order number to refund",
				Type:     schema.String,
				Required: true,
			},
			"reason": {
				Desc:     "The customer's stated reason for the refund",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *InitiateRefundTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		OrderID string `json:"order_id"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Reason == "" {
		args.Reason = "customer request"
	}

	res, err := t.store.InitiateRefund(ctx, args.OrderID, args.Reason)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// CheckRefundStatusTool 查询退款进度
type CheckRefundStatusTool struct {
	store *storage.Storage
}

func (t *CheckRefundStatusTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "check_refund_status",
		Desc: "Check the progress of an existing refund by its refund ID.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"refund_id": {
				Desc:     "The refund ID (e.g. 'REF12345')",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *CheckRefundStatusTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		RefundID string `json:"refund_id"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.RefundStatus(ctx, args.RefundID)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// UpdateAddressTool 更新账户默认地址
type UpdateAddressTool struct {
	store *storage.Storage
}

func (t *UpdateAddressTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "update_address",
		Desc: "Update the default shipping address on a customer account.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {
				Desc:     "The customer ID (e.g. 'CUST001')",
				Type:     schema.String,
				Required: true,
			},
			"new_address": {
				Desc:     "The new default address",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *UpdateAddressTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		CustomerID string `json:"customer_id"`
		NewAddress string `json:"new_address"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.UpdateAddress(ctx, args.CustomerID, args.NewAddress)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// ResetPasswordTool 发送密码重置链接
type ResetPasswordTool struct {
	store *storage.Storage
}

func (t *ResetPasswordTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "reset_password",
		Desc: "Send a password reset link to the email on the customer account.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {
				Desc:     "The customer ID (e.g. 'CUST001')",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *ResetPasswordTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.ResetPassword(ctx, args.CustomerID)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// GetAccountInfoTool 查询账户资料
type GetAccountInfoTool struct {
	store *storage.Storage
}

func (t *GetAccountInfoTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_account_info",
		Desc: "Get the profile (name, email, phone, address) of a customer account.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {
				Desc:     "The customer ID (e.g. 'CUST001')",
				Type:     schema.String,
				Required: true,
			},
		}),
	}, nil
}

func (t *GetAccountInfoTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := t.store.AccountInfo(ctx, args.CustomerID)
	if err != nil {
		return "", err
	}
	return marshalResult(res)
}

// GetTools 返回动作步骤可用的全部工具。
func GetTools(store *storage.Storage) []tool.BaseTool {
	return []tool.BaseTool{
		&CheckOrderStatusTool{store: store},
		&CancelOrderTool{store: store},
		&ModifyOrderTool{store: store},
		&InitiateRefundTool{store: store},
		&CheckRefundStatusTool{store: store},
		&UpdateAddressTool{store: store},
		&ResetPasswordTool{store: store},
		&GetAccountInfoTool{store: store},
	}
}

// GetToolsInfo 返回全部工具的元信息。
func GetToolsInfo(ctx context.Context, store *storage.Storage) ([]*schema.ToolInfo, error) {
	tools := GetTools(store)
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
