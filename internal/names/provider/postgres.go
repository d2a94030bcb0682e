package provider

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"chatpipe/pkg/models"
)

// PostgresDirectory reads naming records from the user_directory table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (p *PostgresDirectory) Name() string {
	return "postgres"
}

func (p *PostgresDirectory) FetchNames(ctx context.Context, ids []string) (map[string]models.MemberInfo, error) {
	if len(ids) == 0 {
		return map[string]models.MemberInfo{}, nil
	}

	query := `
		SELECT user_id, nick_name, friend_remark, name_card
		FROM user_directory
		WHERE user_id = ANY($1)`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query user directory: %w", err)
	}
	defer rows.Close()

	result := make(map[string]models.MemberInfo, len(ids))
	for rows.Next() {
		var info models.MemberInfo
		if err := rows.Scan(&info.UserID, &info.NickName, &info.FriendRemark, &info.NameCard); err != nil {
			return nil, fmt.Errorf("failed to scan directory row: %w", err)
		}
		result[info.UserID] = info
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate directory rows: %w", err)
	}

	return result, nil
}
