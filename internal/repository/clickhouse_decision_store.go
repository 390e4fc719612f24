package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TradeCouncil/internal/domain/models"
	domrepo "TradeCouncil/internal/domain/repository"
	applogger "TradeCouncil/pkg/logger"
)

const DefaultDecisionTable = "decisions"

const decisionColumns = "id, ts, symbol, market, action, final_score, quantity, target_price, stop_loss, take_profit, risk_level, success_count, total_count, reasoning, peer_scores, breakdown"

// sqlDB is the subset of *sql.DB the store uses.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PingContext(ctx context.Context) error
}

// CHDecisionStore keeps the decision audit trail in ClickHouse.
type CHDecisionStore struct {
	db    sqlDB
	table string
	l     *applogger.Logger
}

// NewCHDecisionStore creates a store writing to table.
func NewCHDecisionStore(db sqlDB, table string, l *applogger.Logger) *CHDecisionStore {
	if table == "" {
		table = DefaultDecisionTable
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHDecisionStore{db: db, table: table, l: l}
}

var _ domrepo.DecisionStore = (*CHDecisionStore)(nil)

// DecisionSchema returns the idempotent DDL for the decisions table.
func DecisionSchema(table string) []string {
	if table == "" {
		table = DefaultDecisionTable
	}
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id            String,
            ts            DateTime64(3, 'UTC'),
            symbol        LowCardinality(String),
            market        LowCardinality(String),
            action        LowCardinality(String),
            final_score   Float64,
            quantity      Int64,
            target_price  Float64,
            stop_loss     Float64,
            take_profit   Float64,
            risk_level    LowCardinality(String),
            success_count UInt8,
            total_count   UInt8,
            reasoning     String,
            peer_scores   String,
            breakdown     String
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)
    `, table)}
}

func (s *CHDecisionStore) Store(ctx context.Context, d *models.TradeDecision) error {
	if d == nil || d.Instrument.Symbol == "" {
		return fmt.Errorf("store decision: missing symbol")
	}
	scores, err := json.Marshal(d.PeerScores)
	if err != nil {
		return fmt.Errorf("encode peer scores: %w", err)
	}
	breakdown, err := json.Marshal(d.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, decisionColumns)
	_, err = s.db.ExecContext(ctx, q,
		d.ID,
		d.Timestamp.UTC(),
		d.Instrument.Symbol,
		string(d.Instrument.Market),
		string(d.Action),
		d.FinalScore,
		d.Quantity,
		d.TargetPrice,
		d.StopLoss,
		d.TakeProfit,
		string(d.RiskLevel),
		uint8(d.SuccessCount),
		uint8(d.TotalCount),
		d.Reasoning,
		string(scores),
		string(breakdown),
	)
	if err != nil {
		s.l.Error("decision_store_failed",
			applogger.String("table", s.table),
			applogger.String("symbol", d.Instrument.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Query returns decisions newest first. An empty symbol matches all.
func (s *CHDecisionStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeDecision, error) {
	q, args := s.selectQuery(symbol, from, to, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeDecision
	for rows.Next() {
		var (
			d                     models.TradeDecision
			market, action, level string
			success, total        uint8
			scores, breakdown     string
		)
		if err := rows.Scan(
			&d.ID, &d.Timestamp, &d.Instrument.Symbol, &market, &action,
			&d.FinalScore, &d.Quantity, &d.TargetPrice, &d.StopLoss, &d.TakeProfit,
			&level, &success, &total, &d.Reasoning, &scores, &breakdown,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Instrument.Market = models.Market(market)
		d.Action = models.Action(action)
		d.RiskLevel = models.RiskLevel(level)
		d.SuccessCount, d.TotalCount = int(success), int(total)
		if err := decodeDecisionJSON(scores, breakdown, &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *CHDecisionStore) selectQuery(symbol string, from, to time.Time, limit int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, symbol)
	}
	if !from.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, to.UTC())
	}
	if limit <= 0 {
		limit = 50
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", decisionColumns, s.table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ts DESC LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}

func (s *CHDecisionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func decodeDecisionJSON(scores, breakdown string, d *models.TradeDecision) error {
	if scores != "" {
		if err := json.Unmarshal([]byte(scores), &d.PeerScores); err != nil {
			return fmt.Errorf("decode peer scores: %w", err)
		}
	}
	if breakdown != "" {
		if err := json.Unmarshal([]byte(breakdown), &d.Breakdown); err != nil {
			return fmt.Errorf("decode breakdown: %w", err)
		}
	}
	return nil
}
