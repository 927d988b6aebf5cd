package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/chatscope/chatscope/internal/models"
)

// SaveAnalysis inserts one analysis summary row.
func (db *DB) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	query := `
		INSERT INTO analyses (
			id, title, country, city,
			chat_type, chat_purpose, consent,
			questions, responses, tools_called, assistant_count, system_count,
			web_searches, citations, images, user_tokens, response_tokens,
			statistics, storage_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := db.conn.ExecContext(ctx, query,
		a.ID, a.Title, a.Country, a.City,
		a.ChatType, a.ChatPurpose, a.Consent,
		a.Questions, a.Responses, a.ToolsCalled, a.AssistantCount, a.SystemCount,
		a.WebSearches, a.Citations, a.Images, a.UserTokens, a.ResponseTokens,
		a.Statistics, a.StorageKey,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

const analysisColumns = `
	id, created_at, title, country, city,
	chat_type, chat_purpose, consent,
	questions, responses, tools_called, assistant_count, system_count,
	web_searches, citations, images, user_tokens, response_tokens,
	statistics, storage_key`

// GetAnalysis retrieves one analysis summary by ID.
func (db *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	query := `SELECT` + analysisColumns + ` FROM analyses WHERE id = $1`

	a, err := scanAnalysis(db.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListRecentAnalyses returns up to limit most recent analysis summaries.
func (db *DB) ListRecentAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	query := `SELECT` + analysisColumns + ` FROM analyses ORDER BY created_at DESC LIMIT $1`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// DeleteAnalysis removes one analysis summary row.
func (db *DB) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(s scanner) (*models.Analysis, error) {
	var a models.Analysis
	err := s.Scan(
		&a.ID, &a.CreatedAt, &a.Title, &a.Country, &a.City,
		&a.ChatType, &a.ChatPurpose, &a.Consent,
		&a.Questions, &a.Responses, &a.ToolsCalled, &a.AssistantCount, &a.SystemCount,
		&a.WebSearches, &a.Citations, &a.Images, &a.UserTokens, &a.ResponseTokens,
		&a.Statistics, &a.StorageKey,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
