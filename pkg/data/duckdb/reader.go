package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/datasource"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const readerComponentName = "data.duckdb.reader"

// Reader pulls tick history out of a duckdb database. Per-symbol tables are
// named <symbol>_ticks with ts, ask, bid, ask_volume and bid_volume columns.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open duckdb %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadTicks streams the window through handler in timestamp order.
func (r *Reader) LoadTicks(ctx context.Context, symbol string, from, to time.Time, handler func(tick common.Tick) error) error {
	query := fmt.Sprintf(`SELECT ts, ask, bid, ask_volume, bid_volume FROM %s_ticks WHERE ts BETWEEN ? AND ? ORDER BY ts`, symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			timeStamp time.Time
			ask       float64
			bid       float64
			askVolume float64
			bidVolume float64
		)
		if err := rows.Scan(&timeStamp, &ask, &bid, &askVolume, &bidVolume); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		tick := common.Tick{
			Ask:       fixed.FromFloat64(ask),
			Bid:       fixed.FromFloat64(bid),
			AskVolume: fixed.FromFloat64(askVolume),
			BidVolume: fixed.FromFloat64(bidVolume),

			Source:      readerComponentName,
			Symbol:      symbol,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   timeStamp,
		}
		if err := handler(tick); err != nil {
			return fmt.Errorf("error processing tick: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}

// TickSource buffers a window of ticks in memory and serves them as a
// datasource.TickDataSource.
type TickSource struct {
	ticks []common.Tick
	idx   int
}

func NewTickSource(ctx context.Context, reader *Reader, symbol string, from, to time.Time) (*TickSource, error) {
	source := &TickSource{}
	err := reader.LoadTicks(ctx, symbol, from, to, func(tick common.Tick) error {
		source.ticks = append(source.ticks, tick)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (s *TickSource) GetNext() (common.Tick, error) {
	if s.idx >= len(s.ticks) {
		return common.Tick{}, datasource.ErrEof
	}
	tick := s.ticks[s.idx]
	s.idx++
	return tick, nil
}
