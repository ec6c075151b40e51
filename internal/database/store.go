package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access operations used by the admin pages.
// Every aggregate is computed from current table state at call time; there
// is no caching layer. Methods accept context.Context for cancellation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// DashboardStats returns the four dashboard counters: total messages,
	// total responses, distinct users, and messages in the trailing 24 hours.
	DashboardStats(ctx context.Context) (*Stats, error)

	// ListMessages returns one page of messages ordered by timestamp
	// descending, each annotated with its response count, together with the
	// total number of matching rows. search matches message content or
	// username; userID filters on the exact user id. Either may be empty.
	ListMessages(ctx context.Context, page Page, search, userID string) ([]MessageListItem, int64, error)

	// ListResponses returns one page of responses left-joined to their
	// originating message, ordered by timestamp descending, with the total
	// matching row count. search matches response content or the sender's
	// username; model filters on the exact model name.
	ListResponses(ctx context.Context, page Page, search, model string) ([]ResponseListItem, int64, error)

	// UserStats returns the per-user rollup ordered by message count
	// descending, left-joined to each user's settings row.
	UserStats(ctx context.Context) ([]UserStats, error)

	// Analytics returns the five analytics aggregates.
	Analytics(ctx context.Context) (*Analytics, error)

	// DistinctUsers returns the distinct (user_id, username) pairs seen in
	// messages, ordered by username.
	DistinctUsers(ctx context.Context) ([]UserRef, error)

	// DistinctModels returns the distinct non-null model names seen in
	// responses, ordered by name.
	DistinctModels(ctx context.Context) ([]string, error)

	// DeleteMessage deletes the responses referencing the message, then the
	// message itself. The two statements intentionally run outside a
	// transaction; deleting responses first means a failure between them
	// leaves an orphaned message rather than orphaned responses.
	DeleteMessage(ctx context.Context, messageID string) error

	// DeleteResponse deletes a single response by row id.
	DeleteResponse(ctx context.Context, id int64) error

	// DeleteUserData deletes all responses to a user's messages and then the
	// messages themselves inside one transaction. Partial failure rolls back.
	DeleteUserData(ctx context.Context, userID string) error

	// SaveMessage inserts a new message record. In production the bot ingest
	// process writes these rows; the admin server uses this for fixtures.
	SaveMessage(ctx context.Context, message *Message) error

	// SaveResponse inserts a new response record.
	SaveResponse(ctx context.Context, response *Response) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DashboardStats runs four independent scalar counts, mirroring the
// dashboard cards.
func (s *sqlxStore) DashboardStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		dest  *int64
		query string
	}{
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`},
		{&stats.TotalResponses, `SELECT COUNT(*) FROM responses`},
		{&stats.UniqueUsers, `SELECT COUNT(DISTINCT user_id) FROM messages`},
		{&stats.RecentMessages, `SELECT COUNT(*) FROM messages WHERE datetime(timestamp) > datetime('now', '-1 day')`},
	}

	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			s.logger.ErrorContext(ctx, "Error computing dashboard stats", "query", c.query, "error", err)
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}

	return stats, nil
}

const messageColumns = `m.id, m.user_id, m.username, m.user_display_name, m.channel_id,
       m.channel_name, m.guild_id, m.guild_name, m.message_id, m.message_content,
       m.message_type, m.has_attachments, m.attachment_info, m.timestamp`

func (s *sqlxStore) ListMessages(ctx context.Context, page Page, search, userID string) ([]MessageListItem, int64, error) {
	filter := &Filter{}
	filter.Substring(search, "m.message_content", "m.username")
	filter.Equals("m.user_id", userID)

	var total int64
	countQuery := `SELECT COUNT(*) FROM messages m ` + filter.Where()
	if err := s.db.GetContext(ctx, &total, countQuery, filter.Args()...); err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages", "error", err)
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + `,
       (SELECT COUNT(*) FROM responses r WHERE r.original_message_id = m.message_id) AS response_count
       FROM messages m ` + filter.Where() + `
       ORDER BY m.timestamp DESC
       LIMIT ? OFFSET ?`

	args := append(filter.Args(), page.Limit(), page.Offset())

	var items []MessageListItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error listing messages", "page", page.Number, "error", err)
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed messages", "page", page.Number, "count", len(items), "total", total)
	return items, total, nil
}

const responseColumns = `r.id, r.original_message_id, r.response_message_id, r.response_content,
       r.response_chunks, r.chunk_number, r.processing_time_ms, r.model_used,
       r.tokens_used, r.timestamp`

func (s *sqlxStore) ListResponses(ctx context.Context, page Page, search, model string) ([]ResponseListItem, int64, error) {
	filter := &Filter{}
	filter.Substring(search, "r.response_content", "m.username")
	filter.Equals("r.model_used", model)

	// The left join keeps responses visible after their message is deleted
	// and must appear in the count query too, since the search predicate can
	// reference the joined username.
	joined := `FROM responses r
       LEFT JOIN messages m ON r.original_message_id = m.message_id ` + filter.Where()

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) `+joined, filter.Args()...); err != nil {
		s.logger.ErrorContext(ctx, "Error counting responses", "error", err)
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	query := `SELECT ` + responseColumns + `,
       m.username, m.user_display_name, m.message_content AS original_message ` + joined + `
       ORDER BY r.timestamp DESC
       LIMIT ? OFFSET ?`

	args := append(filter.Args(), page.Limit(), page.Offset())

	var items []ResponseListItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error listing responses", "page", page.Number, "error", err)
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed responses", "page", page.Number, "count", len(items), "total", total)
	return items, total, nil
}

func (s *sqlxStore) UserStats(ctx context.Context) ([]UserStats, error) {
	query := `
        SELECT m.user_id,
               m.username,
               m.user_display_name,
               COUNT(DISTINCT m.id) AS message_count,
               COUNT(DISTINCT r.id) AS response_count,
               MIN(m.timestamp) AS first_message,
               MAX(m.timestamp) AS last_message,
               AVG(r.processing_time_ms) AS avg_processing_time,
               s.nsfw_mode,
               s.content_filter_level
        FROM messages m
        LEFT JOIN responses r ON m.message_id = r.original_message_id
        LEFT JOIN user_settings s ON s.user_id = m.user_id
        GROUP BY m.user_id, m.username, m.user_display_name
        ORDER BY message_count DESC`

	var stats []UserStats
	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error computing user stats", "error", err)
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}

	s.logger.DebugContext(ctx, "Computed user stats", "users", len(stats))
	return stats, nil
}

func (s *sqlxStore) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{}

	byDay := `
        SELECT DATE(timestamp) AS date, COUNT(*) AS count
        FROM messages
        WHERE datetime(timestamp) > datetime('now', '-30 days')
        GROUP BY DATE(timestamp)
        ORDER BY date DESC`
	if err := s.db.SelectContext(ctx, &a.MessagesByDay, byDay); err != nil {
		s.logger.ErrorContext(ctx, "Error computing messages by day", "error", err)
		return nil, fmt.Errorf("failed to compute messages by day: %w", err)
	}

	topUsers := `
        SELECT username, COUNT(*) AS message_count
        FROM messages
        GROUP BY user_id, username
        ORDER BY message_count DESC
        LIMIT 10`
	if err := s.db.SelectContext(ctx, &a.TopUsers, topUsers); err != nil {
		s.logger.ErrorContext(ctx, "Error computing top users", "error", err)
		return nil, fmt.Errorf("failed to compute top users: %w", err)
	}

	modelUsage := `
        SELECT model_used, COUNT(*) AS usage_count, AVG(processing_time_ms) AS avg_time
        FROM responses
        WHERE model_used IS NOT NULL
        GROUP BY model_used
        ORDER BY usage_count DESC`
	if err := s.db.SelectContext(ctx, &a.ModelUsage, modelUsage); err != nil {
		s.logger.ErrorContext(ctx, "Error computing model usage", "error", err)
		return nil, fmt.Errorf("failed to compute model usage: %w", err)
	}

	processing := `
        SELECT AVG(processing_time_ms) AS avg_time,
               MIN(processing_time_ms) AS min_time,
               MAX(processing_time_ms) AS max_time,
               COUNT(*) AS total_responses
        FROM responses
        WHERE processing_time_ms IS NOT NULL`
	if err := s.db.GetContext(ctx, &a.ProcessingStats, processing); err != nil {
		s.logger.ErrorContext(ctx, "Error computing processing stats", "error", err)
		return nil, fmt.Errorf("failed to compute processing stats: %w", err)
	}

	channels := `
        SELECT COALESCE(channel_name, 'Direct Message') AS channel, COUNT(*) AS message_count
        FROM messages
        GROUP BY channel_id, channel_name
        ORDER BY message_count DESC
        LIMIT 10`
	if err := s.db.SelectContext(ctx, &a.ChannelActivity, channels); err != nil {
		s.logger.ErrorContext(ctx, "Error computing channel activity", "error", err)
		return nil, fmt.Errorf("failed to compute channel activity: %w", err)
	}

	return a, nil
}

func (s *sqlxStore) DistinctUsers(ctx context.Context) ([]UserRef, error) {
	query := `SELECT DISTINCT user_id, username FROM messages ORDER BY username`

	var users []UserRef
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing distinct users", "error", err)
		return nil, fmt.Errorf("failed to list distinct users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) DistinctModels(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT model_used FROM responses WHERE model_used IS NOT NULL ORDER BY model_used`

	var models []string
	if err := s.db.SelectContext(ctx, &models, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing distinct models", "error", err)
		return nil, fmt.Errorf("failed to list distinct models: %w", err)
	}
	return models, nil
}

// DeleteMessage removes a message's responses and then the message itself.
// The response delete runs first so an interruption cannot leave responses
// referencing a vanished message.
func (s *sqlxStore) DeleteMessage(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message_id cannot be empty")
	}

	respResult, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE original_message_id = ?`, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting responses for message", "message_id", messageID, "error", err)
		return fmt.Errorf("failed to delete responses for message %s: %w", messageID, err)
	}
	respCount, _ := respResult.RowsAffected()

	msgResult, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE message_id = ?`, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting message", "message_id", messageID, "error", err)
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	msgCount, _ := msgResult.RowsAffected()

	s.logger.InfoContext(ctx, "Deleted message",
		"message_id", messageID,
		"responses_deleted", respCount,
		"messages_deleted", msgCount)
	return nil
}

func (s *sqlxStore) DeleteResponse(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting response", "id", id, "error", err)
		return fmt.Errorf("failed to delete response %d: %w", id, err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted response", "id", id, "affected", count)
	return nil
}

// DeleteUserData removes everything belonging to a user in one transaction:
// responses referencing the user's messages first, then the messages.
func (s *sqlxStore) DeleteUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user data deletion",
			"user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	respResult, err := tx.ExecContext(ctx,
		`DELETE FROM responses
         WHERE original_message_id IN (SELECT message_id FROM messages WHERE user_id = ?)`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting user responses", "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete responses for user %s: %w", userID, err)
	}
	respCount, _ := respResult.RowsAffected()

	msgResult, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting user messages", "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete messages for user %s: %w", userID, err)
	}
	msgCount, _ := msgResult.RowsAffected()

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit user data deletion", "user_id", userID, "error", err)
		return fmt.Errorf("failed to commit user data deletion: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Deleted user data",
		"user_id", userID,
		"responses_deleted", respCount,
		"messages_deleted", msgCount)
	return nil
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.MessageID == "" {
		return fmt.Errorf("message must have a non-empty message_id")
	}
	if message.UserID == "" {
		return fmt.Errorf("message must have a non-empty user_id")
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	if message.MessageType == "" {
		message.MessageType = "user"
	}

	query := `
        INSERT INTO messages (user_id, username, user_display_name, channel_id, channel_name,
                              guild_id, guild_name, message_id, message_content, message_type,
                              has_attachments, attachment_info, timestamp)
        VALUES (:user_id, :username, :user_display_name, :channel_id, :channel_name,
                :guild_id, :guild_name, :message_id, :message_content, :message_type,
                :has_attachments, :attachment_info, :timestamp)`

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"message_id", message.MessageID, "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message %s: %w", message.MessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	}

	s.logger.DebugContext(ctx, "Message saved", "message_id", message.MessageID, "user_id", message.UserID)
	return nil
}

func (s *sqlxStore) SaveResponse(ctx context.Context, response *Response) error {
	if response == nil {
		return fmt.Errorf("cannot save nil response")
	}
	if response.OriginalMessageID == "" {
		return fmt.Errorf("response must have a non-empty original_message_id")
	}
	if response.ResponseMessageID == "" {
		return fmt.Errorf("response must have a non-empty response_message_id")
	}
	if response.Timestamp.IsZero() {
		response.Timestamp = time.Now().UTC()
	}
	if response.ResponseChunks == 0 {
		response.ResponseChunks = 1
	}
	if response.ChunkNumber == 0 {
		response.ChunkNumber = 1
	}

	query := `
        INSERT INTO responses (original_message_id, response_message_id, response_content,
                               response_chunks, chunk_number, processing_time_ms, model_used,
                               tokens_used, timestamp)
        VALUES (:original_message_id, :response_message_id, :response_content,
                :response_chunks, :chunk_number, :processing_time_ms, :model_used,
                :tokens_used, :timestamp)`

	result, err := s.db.NamedExecContext(ctx, query, response)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving response",
			"response_message_id", response.ResponseMessageID, "error", err)
		return fmt.Errorf("failed to save response %s: %w", response.ResponseMessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		response.ID = id
	}

	s.logger.DebugContext(ctx, "Response saved",
		"response_message_id", response.ResponseMessageID,
		"original_message_id", response.OriginalMessageID)
	return nil
}
