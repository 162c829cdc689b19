package repository

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository handles database operations for groups and memberships
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = `id, name, description, invite_code, leader_id, program_start_date, created_at`

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.InviteCode, &g.LeaderID, &g.ProgramStartDate, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create creates a new group. When LeaderID is set the leader is added as
// a member in the same transaction.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO groups (id, name, description, invite_code, leader_id, program_start_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, query,
			group.ID, group.Name, group.Description, group.InviteCode, group.LeaderID, group.ProgramStartDate, group.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("invite code %s: %w", group.InviteCode, ErrConflict)
			}
			return fmt.Errorf("failed to create group: %w", err)
		}

		if group.LeaderID == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
		`, group.ID, *group.LeaderID, models.RoleLeader, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to add group leader: %w", err)
		}
		return nil
	})
}

// GetByInviteCode retrieves a group by its invite code
func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE invite_code = $1`
	g, err := scanGroup(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("invite code: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}
	return g, nil
}

// GetByUserID returns the earliest-joined group of a user
func (r *GroupRepository) GetByUserID(ctx context.Context, userID string) (*models.Group, error) {
	query := `
		SELECT g.id, g.name, g.description, g.invite_code, g.leader_id, g.program_start_date, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at ASC
		LIMIT 1
	`
	g, err := scanGroup(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("group for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group by user id: %w", err)
	}
	return g, nil
}

// GroupIDsForUser lists every group the user belongs to
func (r *GroupRepository) GroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT group_id FROM group_members WHERE user_id = $1 ORDER BY joined_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group ids: %w", err)
	}
	return ids, nil
}

// IsMember checks whether a user belongs to a group
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// AddMember inserts a membership. It reports false when the user was
// already a member; the existing row is left untouched.
func (r *GroupRepository) AddMember(ctx context.Context, member *models.GroupMember) (bool, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, member.GroupID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Members lists a group's members with their profile display names
func (r *GroupRepository) Members(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	query := `
		SELECT m.group_id, m.user_id, m.role, m.joined_at, p.display_name
		FROM group_members m
		LEFT JOIN profiles p ON p.user_id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt, &m.ProfileName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}
