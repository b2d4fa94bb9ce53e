package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	defaultLimit = 200
	maxLimit     = 5000

	defaultDeleteLimit = 500
	maxDeleteLimit     = 900
)

// ConversationQuery 用于查询对话记录的过滤条件。
//
// 所有字段都是可选过滤条件，零值表示不参与过滤。
// 时间范围使用 CreatedAt（写入时间），用于“最近 N 次咨询/某段时间发生了什么”这类检索。
type ConversationQuery struct {
	// TraceID 精确匹配链路 ID。
	TraceID string
	// Intent/Status 精确匹配分诊意图与处理终态。
	Intent string
	Status string
	// Escalated 过滤是否移交人工（nil 表示不过滤）。
	Escalated *bool
	// From/To 过滤 CreatedAt 区间：[From, To]（两端包含）。
	From *time.Time
	To   *time.Time
	// Limit 限制返回条数；<=0 使用默认值。
	Limit int
	// Desc 按 CreatedAt 倒序返回（优先返回最新记录）。
	Desc bool
}

func (s *Storage) InsertConversationRecord(ctx context.Context, rec *ConversationRecord) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if rec == nil {
		return errors.New("conversation record is nil")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert conversation record: %w", err)
	}
	return nil
}

func (s *Storage) QueryConversationRecords(ctx context.Context, q ConversationQuery) ([]ConversationRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	limit := normalizeLimit(q.Limit)
	db := s.db.WithContext(ctx).Model(&ConversationRecord{})
	if q.TraceID != "" {
		db = db.Where("trace_id = ?", q.TraceID)
	}
	if q.Intent != "" {
		db = db.Where("intent = ?", q.Intent)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Escalated != nil {
		db = db.Where("escalated = ?", *q.Escalated)
	}
	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at <= ?", *q.To)
	}
	if q.Desc {
		db = db.Order("created_at DESC")
	} else {
		db = db.Order("created_at ASC")
	}
	db = db.Limit(limit)

	var out []ConversationRecord
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query conversation records: %w", err)
	}
	return out, nil
}

func (s *Storage) DeleteConversationRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&ConversationRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete conversation records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Storage) DeleteConversationRecordsBeforeLimited(ctx context.Context, before time.Time, limit int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}

	limit = normalizeDeleteLimit(limit)

	var ids []uint64
	db := s.db.WithContext(ctx).Model(&ConversationRecord{}).
		Select("id").
		Where("created_at < ?", before).
		Order("id ASC").
		Limit(limit)
	if err := db.Find(&ids).Error; err != nil {
		return 0, fmt.Errorf("select conversation record ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&ConversationRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete conversation records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// AblationQuery 用于查询消融实验结果的过滤条件。
type AblationQuery struct {
	// RunID 精确匹配一次实验。
	RunID string
	// Config 精确匹配系统变体名。
	Config string
	// Success 过滤成功/失败样本（nil 表示不过滤）。
	Success *bool
	// Limit 限制返回条数；<=0 使用默认值。
	Limit int
	// Desc 按 CreatedAt 倒序返回。
	Desc bool
}

func (s *Storage) InsertAblationResult(ctx context.Context, rec *AblationResult) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if rec == nil {
		return errors.New("ablation result is nil")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert ablation result: %w", err)
	}
	return nil
}

func (s *Storage) InsertAblationResults(ctx context.Context, recs []AblationResult) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range recs {
		if recs[i].CreatedAt.IsZero() {
			recs[i].CreatedAt = now
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(recs, 200).Error; err != nil {
		return fmt.Errorf("insert ablation results: %w", err)
	}
	return nil
}

func (s *Storage) QueryAblationResults(ctx context.Context, q AblationQuery) ([]AblationResult, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	limit := normalizeLimit(q.Limit)
	db := s.db.WithContext(ctx).Model(&AblationResult{})
	if q.RunID != "" {
		db = db.Where("run_id = ?", q.RunID)
	}
	if q.Config != "" {
		db = db.Where("config = ?", q.Config)
	}
	if q.Success != nil {
		db = db.Where("success = ?", *q.Success)
	}
	if q.Desc {
		db = db.Order("created_at DESC")
	} else {
		db = db.Order("created_at ASC")
	}
	db = db.Limit(limit)

	var out []AblationResult
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query ablation results: %w", err)
	}
	return out, nil
}

func (s *Storage) CountConversationRecords(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&ConversationRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count conversation records: %w", err)
	}
	return count, nil
}

func (s *Storage) CountAblationResults(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&AblationResult{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count ablation results: %w", err)
	}
	return count, nil
}

func normalizeLimit(v int) int {
	if v <= 0 {
		return defaultLimit
	}
	if v > maxLimit {
		return maxLimit
	}
	return v
}

func normalizeDeleteLimit(v int) int {
	if v <= 0 {
		return defaultDeleteLimit
	}
	if v > maxDeleteLimit {
		return maxDeleteLimit
	}
	return v
}

type notFoundError struct {
	Entity string
	Key    string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// IsNotFound 判断错误是否为“记录不存在”，后端工具层依赖它区分业务失败与系统失败。
func IsNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf)
}
