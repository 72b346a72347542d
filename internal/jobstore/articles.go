package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"

	"github.com/usenetkit/nzbdecode/internal/article"
)

// ArticleStatus records whether a decoded article's checksum matched.
type ArticleStatus string

const (
	ArticleOK      ArticleStatus = "ok"
	ArticleBadCRC  ArticleStatus = "bad_crc"
	ArticleMissing ArticleStatus = "missing"
)

// DecodedArticle is one decoded_articles row: the outcome of decoding
// a single NNTP article body that made up part of a job's target file.
type DecodedArticle struct {
	ID           string
	JobID        string
	MessageID    string
	FileName     string
	PartBegin    uint64
	PartEnd      uint64
	PartSize     uint64
	BytesDecoded uint64
	CRCExpected  uint32
	HasCRC       bool
	CRCComputed  uint32
	Status       ArticleStatus
	Error        string
}

// RecordArticle inserts the outcome of decoding resp (the result of
// nntpclient.Fetch) against messageID within job.
func (s *Store) RecordArticle(ctx context.Context, jobID, messageID string, resp *article.Response, recordErr error) error {
	rec := DecodedArticle{
		ID:        ksuid.New().String(),
		JobID:     jobID,
		MessageID: messageID,
	}

	switch {
	case recordErr != nil:
		rec.Status = ArticleMissing
		rec.Error = recordErr.Error()
	case resp.StatusCode != 222:
		rec.Status = ArticleMissing
		rec.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	default:
		rec.FileName = resp.FileName
		rec.PartBegin = resp.PartBegin
		rec.PartEnd = resp.PartEnd
		rec.PartSize = resp.PartSize
		rec.BytesDecoded = resp.BytesDecoded
		rec.CRCComputed = resp.CRCComputed
		if resp.HasCRCExpected {
			rec.CRCExpected, rec.HasCRC = resp.CRCExpected, true
		}
		if rec.HasCRC && rec.CRCExpected != rec.CRCComputed {
			rec.Status = ArticleBadCRC
		} else {
			rec.Status = ArticleOK
		}
		if len(resp.Errors) > 0 {
			rec.Error = joinErrorKinds(resp.Errors)
		}
	}

	var crcExpected, crcComputed sql.NullInt64
	if rec.HasCRC {
		crcExpected = sql.NullInt64{Int64: int64(rec.CRCExpected), Valid: true}
	}
	if rec.Status != ArticleMissing {
		crcComputed = sql.NullInt64{Int64: int64(rec.CRCComputed), Valid: true}
	}
	var errVal sql.NullString
	if rec.Error != "" {
		errVal = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decoded_articles
			(id, job_id, message_id, file_name, part_begin, part_end, part_size, bytes_decoded, crc_expected, crc_computed, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.JobID, rec.MessageID, rec.FileName, rec.PartBegin, rec.PartEnd, rec.PartSize, rec.BytesDecoded,
		crcExpected, crcComputed, string(rec.Status), errVal,
	)
	if err != nil {
		return fmt.Errorf("jobstore: record article %s: %w", messageID, err)
	}
	return nil
}

func joinErrorKinds(kinds []article.ErrorKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}

// ListArticlesForJob returns every decoded article recorded against
// jobID, in insertion order.
func (s *Store) ListArticlesForJob(ctx context.Context, jobID string) ([]*DecodedArticle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, message_id, file_name, part_begin, part_end, part_size, bytes_decoded, crc_expected, crc_computed, status, error
		FROM decoded_articles WHERE job_id = ? ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("jobstore: list articles for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []*DecodedArticle
	for rows.Next() {
		var rec DecodedArticle
		var fileName sql.NullString
		var crcExpected, crcComputed sql.NullInt64
		var errVal sql.NullString
		var status string
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.MessageID, &fileName, &rec.PartBegin, &rec.PartEnd, &rec.PartSize,
			&rec.BytesDecoded, &crcExpected, &crcComputed, &status, &errVal); err != nil {
			return nil, fmt.Errorf("jobstore: scan article row: %w", err)
		}
		rec.FileName = fileName.String
		rec.Status = ArticleStatus(status)
		rec.Error = errVal.String
		if crcExpected.Valid {
			rec.CRCExpected, rec.HasCRC = uint32(crcExpected.Int64), true
		}
		if crcComputed.Valid {
			rec.CRCComputed = uint32(crcComputed.Int64)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
