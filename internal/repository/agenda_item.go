package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
	"github.com/greg-hahn/cog-council-meetings/internal/service"
)

type AgendaItemRepository struct {
	db dbtx
}

func NewAgendaItemRepository(pool *pgxpool.Pool) *AgendaItemRepository {
	return &AgendaItemRepository{db: pool}
}

func NewAgendaItemRepositoryWithTx(tx pgx.Tx) *AgendaItemRepository {
	return &AgendaItemRepository{db: tx}
}

func (r *AgendaItemRepository) GetByMeetingAndNumber(ctx context.Context, meetingID int64, itemNumber string) (*domain.AgendaItem, error) {
	var item domain.AgendaItem
	var rawText, summaryText, section *string
	err := r.db.QueryRow(ctx,
		`SELECT id, meeting_id, item_number, title, raw_text, summary_text, section,
		        estimated_start_offset_minutes, actual_start_datetime, actual_end_datetime, status
		 FROM agenda_item WHERE meeting_id = $1 AND item_number = $2`,
		meetingID, itemNumber,
	).Scan(&item.ID, &item.MeetingID, &item.ItemNumber, &item.Title, &rawText, &summaryText,
		&section, &item.EstimatedStartOffsetMinutes, &item.ActualStartDatetime,
		&item.ActualEndDatetime, &item.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgendaItemNotFound
		}
		return nil, err
	}
	item.RawText = stringOrEmpty(rawText)
	item.SummaryText = stringOrEmpty(summaryText)
	item.Section = stringOrEmpty(section)
	return &item, nil
}

func (r *AgendaItemRepository) Create(ctx context.Context, item *domain.AgendaItem) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO agenda_item (meeting_id, item_number, title, raw_text, summary_text,
		                          section, estimated_start_offset_minutes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		item.MeetingID, item.ItemNumber, item.Title, nullableString(item.RawText),
		nullableString(item.SummaryText), nullableString(item.Section),
		item.EstimatedStartOffsetMinutes, item.Status,
	).Scan(&item.ID)
}

func (r *AgendaItemRepository) Update(ctx context.Context, item *domain.AgendaItem) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agenda_item
		 SET title = $1, raw_text = $2, summary_text = $3, section = $4,
		     estimated_start_offset_minutes = $5, status = $6
		 WHERE id = $7`,
		item.Title, nullableString(item.RawText), nullableString(item.SummaryText),
		nullableString(item.Section), item.EstimatedStartOffsetMinutes, item.Status, item.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgendaItemNotFound
	}
	return nil
}

// ReplaceTags clears an item's tag associations and writes the given set.
// Classifier output is authoritative per run; associations are never merged.
func (r *AgendaItemRepository) ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM agenda_item_tag WHERE agenda_item_id = $1`, itemID,
	); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO agenda_item_tag (agenda_item_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			itemID, tagID,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByMeeting returns a meeting's items with their tags, ordered by item
// number.
func (r *AgendaItemRepository) ListByMeeting(ctx context.Context, meetingID int64) ([]*domain.AgendaItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ai.id, ai.meeting_id, ai.item_number, ai.title, ai.raw_text, ai.summary_text,
		        ai.section, ai.estimated_start_offset_minutes, ai.actual_start_datetime,
		        ai.actual_end_datetime, ai.status,
		        COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		 FROM agenda_item ai
		 LEFT JOIN agenda_item_tag ait ON ait.agenda_item_id = ai.id
		 LEFT JOIN tag t ON t.id = ait.tag_id
		 WHERE ai.meeting_id = $1
		 GROUP BY ai.id
		 ORDER BY ai.item_number`,
		meetingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.AgendaItem
	for rows.Next() {
		item, err := scanAgendaItemWithTags(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetDetail returns one item with its tags and its meeting's identity,
// scoped to a municipality.
func (r *AgendaItemRepository) GetDetail(ctx context.Context, municipalityID, itemID int64) (*service.ItemWithMeeting, error) {
	rows, err := r.db.Query(ctx,
		itemWithMeetingQuery+` WHERE ai.id = $2 GROUP BY ai.id, m.id`,
		municipalityID, itemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanItemWithMeetingRows(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrAgendaItemNotFound
	}
	return results[0], nil
}

// Search finds items by title/summary keyword and/or tag name across a
// municipality's meetings, newest meetings first.
func (r *AgendaItemRepository) Search(ctx context.Context, municipalityID int64, query, tag string, limit int) ([]*service.ItemWithMeeting, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		itemWithMeetingQuery+`
		 WHERE ($2 = '' OR ai.title ILIKE '%' || $2 || '%' OR ai.summary_text ILIKE '%' || $2 || '%')
		   AND ($3 = '' OR EXISTS (
		         SELECT 1 FROM agenda_item_tag xt JOIN tag x ON x.id = xt.tag_id
		         WHERE xt.agenda_item_id = ai.id AND x.name = $3))
		 GROUP BY ai.id, m.id
		 ORDER BY m.start_datetime DESC NULLS LAST, ai.item_number
		 LIMIT $4`,
		municipalityID, query, tag, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItemWithMeetingRows(rows)
}

const itemWithMeetingQuery = `
		SELECT ai.id, ai.meeting_id, ai.item_number, ai.title, ai.raw_text, ai.summary_text,
		       ai.section, ai.estimated_start_offset_minutes, ai.actual_start_datetime,
		       ai.actual_end_datetime, ai.status,
		       COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}'),
		       m.id, m.title, m.start_datetime
		 FROM agenda_item ai
		 JOIN meeting m ON m.id = ai.meeting_id AND m.municipality_id = $1
		 LEFT JOIN agenda_item_tag ait ON ait.agenda_item_id = ai.id
		 LEFT JOIN tag t ON t.id = ait.tag_id`

func scanAgendaItemWithTags(rows pgx.Rows) (*domain.AgendaItem, error) {
	var item domain.AgendaItem
	var rawText, summaryText, section *string
	err := rows.Scan(&item.ID, &item.MeetingID, &item.ItemNumber, &item.Title, &rawText,
		&summaryText, &section, &item.EstimatedStartOffsetMinutes,
		&item.ActualStartDatetime, &item.ActualEndDatetime, &item.Status, &item.Tags)
	if err != nil {
		return nil, err
	}
	item.RawText = stringOrEmpty(rawText)
	item.SummaryText = stringOrEmpty(summaryText)
	item.Section = stringOrEmpty(section)
	return &item, nil
}

func scanItemWithMeetingRows(rows pgx.Rows) ([]*service.ItemWithMeeting, error) {
	var results []*service.ItemWithMeeting
	for rows.Next() {
		var item domain.AgendaItem
		var rawText, summaryText, section *string
		var result service.ItemWithMeeting
		err := rows.Scan(&item.ID, &item.MeetingID, &item.ItemNumber, &item.Title, &rawText,
			&summaryText, &section, &item.EstimatedStartOffsetMinutes,
			&item.ActualStartDatetime, &item.ActualEndDatetime, &item.Status, &item.Tags,
			&result.MeetingID, &result.MeetingTitle, &result.MeetingStart)
		if err != nil {
			return nil, err
		}
		item.RawText = stringOrEmpty(rawText)
		item.SummaryText = stringOrEmpty(summaryText)
		item.Section = stringOrEmpty(section)
		result.Item = &item
		results = append(results, &result)
	}
	return results, rows.Err()
}
