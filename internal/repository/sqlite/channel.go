package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/converse/internal/apperror"
	"github.com/sakif/converse/internal/model"
	"github.com/sakif/converse/internal/repository"
)

// ChannelDB implements repository.ChannelRepository over the shared pool.
type ChannelDB struct {
	conn *sql.DB
}

// compile-time check that *ChannelDB implements repository.ChannelRepository
var _ repository.ChannelRepository = (*ChannelDB)(nil)

// Create inserts the channel row and its member rows in one transaction,
// so a half-created channel can never be observed.
func (db *ChannelDB) Create(ctx context.Context, channel *model.Channel) error {
	now := time.Now()
	channel.ID = xid.New().String()
	channel.CreatedAt = now
	channel.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning channel transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO channels (id, name, admin_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		channel.ID, channel.Name, channel.AdminID, channel.CreatedAt, channel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting channel: %w", err)
	}

	for _, memberID := range channel.Members {
		// INSERT OR IGNORE: a duplicate member id in the request collapses
		// to one membership row instead of failing the whole create.
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)`,
			channel.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting channel member %s: %w", memberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing channel: %w", err)
	}
	return nil
}

func (db *ChannelDB) GetByID(ctx context.Context, id string) (*model.Channel, error) {
	var ch model.Channel
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, admin_id, created_at, updated_at FROM channels WHERE id = ?`,
		id,
	).Scan(&ch.ID, &ch.Name, &ch.AdminID, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Channel not found")
		}
		return nil, fmt.Errorf("sqlite: getting channel %s: %w", id, err)
	}

	members, err := db.channelMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	ch.Members = members
	return &ch, nil
}

func (db *ChannelDB) channelMembers(ctx context.Context, channelID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM channel_members WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting members of channel %s: %w", channelID, err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// ListForUser returns channels where the user is admin or member,
// most recently updated first.
func (db *ChannelDB) ListForUser(ctx context.Context, userID string) ([]model.Channel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT c.id, c.name, c.admin_id, c.created_at, c.updated_at
		 FROM channels c
		 LEFT JOIN channel_members m ON m.channel_id = c.id
		 WHERE c.admin_id = ? OR m.user_id = ?
		 ORDER BY c.updated_at DESC`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing channels for user %s: %w", userID, err)
	}
	defer rows.Close()

	channels := []model.Channel{}
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.AdminID, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: reading channels: %w", err)
	}

	for i := range channels {
		members, err := db.channelMembers(ctx, channels[i].ID)
		if err != nil {
			return nil, err
		}
		channels[i].Members = members
	}
	return channels, nil
}

// Messages returns the channel's history in append order (seq is the
// physical append counter), each message joined with its sender's
// restricted projection. The password hash is never selected.
func (db *ChannelDB) Messages(ctx context.Context, channelID string) ([]model.EnrichedMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.content, m.created_at,
		        u.id, u.first_name, u.last_name, u.email, u.image, u.color
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.channel_id = ?
		 ORDER BY m.seq`,
		channelID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting messages of channel %s: %w", channelID, err)
	}
	defer rows.Close()

	messages := []model.EnrichedMessage{}
	for rows.Next() {
		var em model.EnrichedMessage
		err := rows.Scan(
			&em.ID,
			&em.Content,
			&em.CreatedAt,
			&em.Sender.ID,
			&em.Sender.FirstName,
			&em.Sender.LastName,
			&em.Sender.Email,
			&em.Sender.Image,
			&em.Sender.Color,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning message: %w", err)
		}
		messages = append(messages, em)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: reading messages: %w", err)
	}
	return messages, nil
}

// AppendMessage links a message into the channel's sequence and bumps the
// channel's updated_at so the channel listing reorders. Appends from
// concurrent senders land in last-physical-append order, which is the
// ordering guarantee.
func (db *ChannelDB) AppendMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning message transaction: %w", err)
	}
	defer tx.Rollback()

	// Touch the channel first: zero rows affected doubles as the
	// existence check, before the message insert can trip a foreign key.
	res, err := tx.ExecContext(ctx,
		`UPDATE channels SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, msg.ChannelID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching channel %s: %w", msg.ChannelID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("Channel not found")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, channel_id, sender_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChannelID, msg.SenderID, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing message: %w", err)
	}
	return nil
}
