package database

import (
	"database/sql"
	"time"
)

// Message represents one ingested chat message, written by the bot process.
// Optional columns use sql.Null* types rather than sentinel strings; the
// presentation layer decides what an absent value renders as.
type Message struct {
	ID              int64          `db:"id"`
	UserID          string         `db:"user_id"`
	Username        string         `db:"username"`
	UserDisplayName sql.NullString `db:"user_display_name"`
	ChannelID       string         `db:"channel_id"`
	ChannelName     sql.NullString `db:"channel_name"`
	GuildID         sql.NullString `db:"guild_id"`
	GuildName       sql.NullString `db:"guild_name"`
	MessageID       string         `db:"message_id"`
	Content         string         `db:"message_content"`
	MessageType     string         `db:"message_type"`
	HasAttachments  bool           `db:"has_attachments"`
	AttachmentInfo  sql.NullString `db:"attachment_info"`
	Timestamp       time.Time      `db:"timestamp"`
}

// MessageListItem is a Message annotated with its response count for the
// paginated listing.
type MessageListItem struct {
	Message
	ResponseCount int64 `db:"response_count"`
}

// Response represents one generated reply, optionally linked to a Message
// via OriginalMessageID. The link is not schema-enforced; a response can
// outlive its message.
type Response struct {
	ID                int64          `db:"id"`
	OriginalMessageID string         `db:"original_message_id"`
	ResponseMessageID string         `db:"response_message_id"`
	Content           string         `db:"response_content"`
	ResponseChunks    int64          `db:"response_chunks"`
	ChunkNumber       int64          `db:"chunk_number"`
	ProcessingTimeMs  sql.NullInt64  `db:"processing_time_ms"`
	ModelUsed         sql.NullString `db:"model_used"`
	TokensUsed        sql.NullInt64  `db:"tokens_used"`
	Timestamp         time.Time      `db:"timestamp"`
}

// ResponseListItem is a Response joined with its originating message. The
// joined columns are nullable because the message may have been deleted.
type ResponseListItem struct {
	Response
	Username        sql.NullString `db:"username"`
	UserDisplayName sql.NullString `db:"user_display_name"`
	OriginalMessage sql.NullString `db:"original_message"`
}

// UserSettings represents a user's stored preference row. A user without a
// row falls back to display defaults (nsfw unset, filter level "strict").
type UserSettings struct {
	ID                 int64          `db:"id"`
	UserID             string         `db:"user_id"`
	Username           sql.NullString `db:"username"`
	UserDisplayName    sql.NullString `db:"user_display_name"`
	NSFWMode           sql.NullBool   `db:"nsfw_mode"`
	ContentFilterLevel sql.NullString `db:"content_filter_level"`
	UpdatedAt          sql.NullTime   `db:"updated_at"`
}

// Stats holds the four dashboard counters.
type Stats struct {
	TotalMessages  int64
	TotalResponses int64
	UniqueUsers    int64
	RecentMessages int64
}

// UserStats is one row of the per-user rollup: message/response counts,
// activity range, mean processing time, and the user's settings if present.
// Timestamp aggregates are carried as raw strings because MIN/MAX over a
// DATETIME column loses the declared type.
type UserStats struct {
	UserID             string          `db:"user_id"`
	Username           string          `db:"username"`
	UserDisplayName    sql.NullString  `db:"user_display_name"`
	MessageCount       int64           `db:"message_count"`
	ResponseCount      int64           `db:"response_count"`
	FirstMessage       sql.NullString  `db:"first_message"`
	LastMessage        sql.NullString  `db:"last_message"`
	AvgProcessingTime  sql.NullFloat64 `db:"avg_processing_time"`
	NSFWMode           sql.NullBool    `db:"nsfw_mode"`
	ContentFilterLevel sql.NullString  `db:"content_filter_level"`
}

// DayCount is one day of message volume.
type DayCount struct {
	Date  string `db:"date"`
	Count int64  `db:"count"`
}

// UserCount is one user's message volume.
type UserCount struct {
	Username     string `db:"username"`
	MessageCount int64  `db:"message_count"`
}

// ModelUsage is one model's usage count and mean latency.
type ModelUsage struct {
	Model      string          `db:"model_used"`
	UsageCount int64           `db:"usage_count"`
	AvgTime    sql.NullFloat64 `db:"avg_time"`
}

// ProcessingStats holds global latency aggregates over responses with a
// recorded processing time.
type ProcessingStats struct {
	AvgTime        sql.NullFloat64 `db:"avg_time"`
	MinTime        sql.NullFloat64 `db:"min_time"`
	MaxTime        sql.NullFloat64 `db:"max_time"`
	TotalResponses int64           `db:"total_responses"`
}

// ChannelCount is one channel's message volume. Channel is already
// coalesced to "Direct Message" for rows without a channel name.
type ChannelCount struct {
	Channel      string `db:"channel"`
	MessageCount int64  `db:"message_count"`
}

// Analytics bundles the five analytics page aggregates.
type Analytics struct {
	MessagesByDay   []DayCount
	TopUsers        []UserCount
	ModelUsage      []ModelUsage
	ProcessingStats ProcessingStats
	ChannelActivity []ChannelCount
}

// UserRef is a (user_id, username) pair for the messages filter dropdown.
type UserRef struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
}
