package history

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseNativeSink writes run records over the native protocol using the
// official ClickHouse Go client.
type ClickHouseNativeSink struct {
	conn  driver.Conn
	table string
}

func NewClickHouseNativeSink(addr, table string) (*ClickHouseNativeSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &ClickHouseNativeSink{conn: conn, table: table}, nil
}

func (s *ClickHouseNativeSink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *ClickHouseNativeSink) Send(ctx context.Context, r RunRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (service, started_at, finished_at, checks, violations, passed, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table)
	err := s.conn.Exec(ctx, query,
		r.Service,
		r.StartedAt,
		r.FinishedAt,
		r.Checks,
		r.Violations,
		r.Passed,
		r.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record into ClickHouse: %w", err)
	}
	return nil
}

// NewClickHouseSinkFromURL selects the transport by scheme: "clickhouse://"
// opens a native-protocol connection, anything else is treated as an HTTP
// interface base URL. A "table" query parameter overrides the table argument.
func NewClickHouseSinkFromURL(rawURL, table string) (Sink, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if t := u.Query().Get("table"); t != "" {
		table = t
	}
	if table == "" {
		table = "conformance_runs"
	}
	if u.Scheme == "clickhouse" {
		host := u.Host
		if host == "" {
			host = "localhost:9000" // default ClickHouse native port
		}
		return NewClickHouseNativeSink(host, table)
	}
	u.RawQuery = ""
	return NewClickHouseSink(u.String(), table), nil
}
