package storage

import "time"

// Order 表示一条订单记录，是订单类操作（查询/取消/修改/退款）的事实来源。
type Order struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// OrderID 为面向客户的订单号（查询/工具调用均以它为键），全局唯一。
	OrderID string `gorm:"size:32;not null;uniqueIndex"`
	// CustomerID 关联账户表的客户标识。
	CustomerID string `gorm:"size:32;not null;index"`
	// Status 为订单当前状态（processing/pending/shipped/delivered/cancelled），决定可执行的操作。
	Status string `gorm:"size:32;not null;index"`
	// ItemsJSON 存放订单商品列表（JSON 字符串数组），便于快速落地与演进。
	ItemsJSON string `gorm:"type:text"`
	// Total 为订单总金额（美元）。
	Total float64 `gorm:"not null"`
	// ShippingAddress 为收货地址；发货前可修改。
	ShippingAddress string `gorm:"type:text"`
	// CreatedDate/ShippedDate 为下单/发货日期（YYYY-MM-DD，沿用上游 API 口径）。
	CreatedDate string `gorm:"size:16"`
	ShippedDate string `gorm:"size:16"`
	// CancelledDate/CancellationReason 记录取消操作的时间与原因（可选）。
	CancelledDate      string `gorm:"size:16"`
	CancellationReason string `gorm:"type:text"`
	// ModifiedDate 记录最近一次修改日期（可选）。
	ModifiedDate string `gorm:"size:16"`
	// CreatedAt 为写入数据库时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// Refund 表示一笔退款流水。退款发起后状态固定为 processing，预计 5-7 个工作日到账。
type Refund struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// RefundID 为退款单号（REF + 5 位数字），全局唯一。
	RefundID string `gorm:"size:32;not null;uniqueIndex"`
	// OrderID 关联退款对应的订单号。
	OrderID string `gorm:"size:32;not null;index"`
	// Amount 为退款金额（美元）。
	Amount float64 `gorm:"not null"`
	// Reason 为客户陈述的退款原因。
	Reason string `gorm:"type:text"`
	// Status 为退款状态（processing/completed）。
	Status string `gorm:"size:32;not null;index"`
	// InitiatedDate/EstimatedCompletion 为发起日期与预计到账说明。
	InitiatedDate       string `gorm:"size:16"`
	EstimatedCompletion string `gorm:"size:64"`
	// CreatedAt 为写入数据库时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// Account 表示一个客户账户，支持查询资料、改地址、重置密码等账户类操作。
type Account struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// CustomerID 为客户标识（CUST 开头），全局唯一。
	CustomerID string `gorm:"size:32;not null;uniqueIndex"`
	// Email/Name/Phone 为账户基础资料。
	Email string `gorm:"size:255;not null"`
	Name  string `gorm:"size:255"`
	Phone string `gorm:"size:64"`
	// Address 为账户默认地址，可被 update_address 操作覆盖。
	Address string `gorm:"type:text"`
	// CreatedAt 为写入数据库时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// ConversationRecord 记录一次完整的咨询处理链路，用于追溯与后续分析。
//
// 一条记录对应一次 Run：从客户提问到最终回复，包含走过的处理步骤序列与耗时。
type ConversationRecord struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// TraceID 用于串联一次请求链路，便于按链路聚合检索。
	TraceID string `gorm:"size:64;index"`
	// Query/Response 为客户原始提问与系统最终回复。
	Query    string `gorm:"type:text;not null"`
	Response string `gorm:"type:text"`
	// SequenceJSON 存放实际执行的步骤序列（JSON 字符串数组，例如 ["triage","action","followup"]）。
	SequenceJSON string `gorm:"type:text"`
	// Intent/Sentiment 为分诊结果，便于按类别统计。
	Intent    string `gorm:"size:64;index"`
	Sentiment string `gorm:"size:16"`
	// Status 为处理终态（resolved/partial/escalated/failed），用于快速筛选。
	Status string `gorm:"size:32;not null;index"`
	// Escalated 标记该次咨询是否移交人工。
	Escalated bool `gorm:"not null"`
	// DurationMS 为整条链路耗时（毫秒）。
	DurationMS int64 `gorm:"not null"`
	// CreatedAt 为记录写入数据库的时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"`
}

// AblationResult 记录消融实验中单条查询的执行结果，汇总指标由上层按配置聚合。
type AblationResult struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// RunID 标识一次完整实验，同一次实验的所有配置共享同一个 RunID。
	RunID string `gorm:"size:64;index"`
	// Config 为系统变体名（full_system/no_followup/action_only/minimal/baseline）。
	Config string `gorm:"size:64;not null;index"`
	// Query 为该条样本的输入。
	Query string `gorm:"type:text;not null"`
	// Steps 为该次执行实际经过的步骤数。
	Steps int `gorm:"not null"`
	// Success 标记该次执行是否成功；失败样本不计入平均值。
	Success bool `gorm:"not null"`
	// ErrorMessage 存放失败时的错误信息（可选）。
	ErrorMessage string `gorm:"type:text"`
	// DurationMS 为该条样本的处理耗时（毫秒）。
	DurationMS int64 `gorm:"not null"`
	// CreatedAt 为记录写入数据库的时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"`
}
