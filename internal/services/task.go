package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService keeps assignment, completion and comment state keyed by
// (trip, task id), apart from the checklist items themselves. The checklist
// generator is free to rebuild its items; this ledger survives regeneration
// and gets overlaid at read time.
type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

// Assign unconditionally (re-)assigns a task. A previous assignee is simply
// replaced; a task never has more than one. Every mutating operation here
// re-verifies can_manage_tasks itself rather than trusting the caller.
func (s *TaskService) Assign(ctx context.Context, tripID uuid.UUID, taskID, assignedTo, assignedBy string) (*models.TaskRecord, error) {
	if err := s.requireManageTasks(ctx, tripID, assignedBy); err != nil {
		return nil, err
	}

	var task models.TaskRecord
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO trip_tasks (trip_id, task_id, status, assigned_to, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (trip_id, task_id) DO UPDATE SET
			assigned_to = EXCLUDED.assigned_to,
			assigned_by = EXCLUDED.assigned_by,
			assigned_at = NOW(),
			updated_at = NOW()
		RETURNING id, trip_id, task_id, status, assigned_to, assigned_by, assigned_at, completed_by, completed_at, created_at, updated_at
	`, tripID, taskID, models.TaskStatusIncomplete, assignedTo, assignedBy).Scan(
		&task.ID, &task.TripID, &task.TaskID, &task.Status,
		&task.AssignedTo, &task.AssignedBy, &task.AssignedAt,
		&task.CompletedBy, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	return &task, nil
}

// Unassign clears the assignment. Completion history, if any, is preserved.
func (s *TaskService) Unassign(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error) {
	if err := s.requireManageTasks(ctx, tripID, actorEmail); err != nil {
		return nil, err
	}

	var task models.TaskRecord
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE trip_tasks
		SET assigned_to = NULL, assigned_by = NULL, assigned_at = NULL, updated_at = NOW()
		WHERE trip_id = $1 AND task_id = $2
		RETURNING id, trip_id, task_id, status, assigned_to, assigned_by, assigned_at, completed_by, completed_at, created_at, updated_at
	`, tripID, taskID).Scan(
		&task.ID, &task.TripID, &task.TaskID, &task.Status,
		&task.AssignedTo, &task.AssignedBy, &task.AssignedAt,
		&task.CompletedBy, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// Complete marks a task done. The completer does not have to be the current
// assignee; "only the assignee may complete" is a UI nicety, not a ledger
// rule. Completing an untracked generated task creates its ledger row.
func (s *TaskService) Complete(ctx context.Context, tripID uuid.UUID, taskID, completedBy string) (*models.TaskRecord, error) {
	if err := s.requireManageTasks(ctx, tripID, completedBy); err != nil {
		return nil, err
	}

	var task models.TaskRecord
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO trip_tasks (trip_id, task_id, status, completed_by, completed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (trip_id, task_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_by = EXCLUDED.completed_by,
			completed_at = NOW(),
			updated_at = NOW()
		RETURNING id, trip_id, task_id, status, assigned_to, assigned_by, assigned_at, completed_by, completed_at, created_at, updated_at
	`, tripID, taskID, models.TaskStatusComplete, completedBy).Scan(
		&task.ID, &task.TripID, &task.TaskID, &task.Status,
		&task.AssignedTo, &task.AssignedBy, &task.AssignedAt,
		&task.CompletedBy, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	return &task, nil
}

// Uncomplete reverses completion and clears its history, leaving any
// assignment intact.
func (s *TaskService) Uncomplete(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error) {
	if err := s.requireManageTasks(ctx, tripID, actorEmail); err != nil {
		return nil, err
	}

	var task models.TaskRecord
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE trip_tasks
		SET status = $3, completed_by = NULL, completed_at = NULL, updated_at = NOW()
		WHERE trip_id = $1 AND task_id = $2
		RETURNING id, trip_id, task_id, status, assigned_to, assigned_by, assigned_at, completed_by, completed_at, created_at, updated_at
	`, tripID, taskID, models.TaskStatusIncomplete).Scan(
		&task.ID, &task.TripID, &task.TaskID, &task.Status,
		&task.AssignedTo, &task.AssignedBy, &task.AssignedAt,
		&task.CompletedBy, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// AddComment appends to the task's comment thread. Comments are never
// edited or deleted. Any trip member may comment, viewers included.
func (s *TaskService) AddComment(ctx context.Context, tripID uuid.UUID, taskID, authorEmail, authorName, content string) (*models.TaskComment, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = $1 AND email = $2)
	`, tripID, authorEmail).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrForbidden
	}

	var comment models.TaskComment
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO task_comments (trip_id, task_id, author_email, author_name, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, trip_id, task_id, author_email, author_name, content, created_at
	`, tripID, taskID, authorEmail, authorName, content).Scan(
		&comment.ID, &comment.TripID, &comment.TaskID,
		&comment.AuthorEmail, &comment.AuthorName, &comment.Content, &comment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

// EnhancedItems overlays ledger state onto the caller-supplied base
// checklist. baseItems is read-only here; the returned slice is a fresh
// copy.
func (s *TaskService) EnhancedItems(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) ([]models.ReadinessItem, error) {
	records, err := s.recordsForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentsForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	enhanced := make([]models.ReadinessItem, len(baseItems))
	for i, item := range baseItems {
		merged := item
		if rec, ok := records[item.ID]; ok {
			merged.Status = rec.Status
			merged.AssignedTo = rec.AssignedTo
			merged.AssignedBy = rec.AssignedBy
			merged.AssignedAt = rec.AssignedAt
			merged.CompletedBy = rec.CompletedBy
			merged.CompletedAt = rec.CompletedAt
		}
		merged.Comments = comments[item.ID]
		enhanced[i] = merged
	}
	return enhanced, nil
}

// Stats aggregates the enhanced view into trip-wide and per-member counts.
// Overdue counts urgent items that are still open.
func (s *TaskService) Stats(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) (*models.TaskStats, error) {
	items, err := s.EnhancedItems(ctx, tripID, baseItems)
	if err != nil {
		return nil, err
	}

	stats := &models.TaskStats{
		Total:    len(items),
		ByMember: make(map[string]models.MemberTaskStats),
	}
	for _, item := range items {
		completed := item.Status == models.TaskStatusComplete
		if completed {
			stats.Completed++
		} else if item.Urgent {
			stats.Overdue++
		}

		if item.AssignedTo == nil {
			stats.Unassigned++
			continue
		}
		stats.Assigned++

		member := stats.ByMember[*item.AssignedTo]
		member.Assigned++
		if completed {
			member.Completed++
		} else {
			member.Pending++
		}
		stats.ByMember[*item.AssignedTo] = member
	}
	return stats, nil
}

func (s *TaskService) recordsForTrip(ctx context.Context, tripID uuid.UUID) (map[string]models.TaskRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, trip_id, task_id, status, assigned_to, assigned_by, assigned_at, completed_by, completed_at, created_at, updated_at
		FROM trip_tasks WHERE trip_id = $1
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]models.TaskRecord)
	for rows.Next() {
		var t models.TaskRecord
		if err := rows.Scan(
			&t.ID, &t.TripID, &t.TaskID, &t.Status,
			&t.AssignedTo, &t.AssignedBy, &t.AssignedAt,
			&t.CompletedBy, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records[t.TaskID] = t
	}
	return records, nil
}

func (s *TaskService) commentsForTrip(ctx context.Context, tripID uuid.UUID) (map[string][]models.TaskComment, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, trip_id, task_id, author_email, author_name, content, created_at
		FROM task_comments WHERE trip_id = $1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make(map[string][]models.TaskComment)
	for rows.Next() {
		var c models.TaskComment
		if err := rows.Scan(
			&c.ID, &c.TripID, &c.TaskID,
			&c.AuthorEmail, &c.AuthorName, &c.Content, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments[c.TaskID] = append(comments[c.TaskID], c)
	}
	return comments, nil
}

func (s *TaskService) requireManageTasks(ctx context.Context, tripID uuid.UUID, email string) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&role)
	if err != nil {
		return ErrForbidden
	}
	if !models.PermissionsForRole(role).CanManageTasks {
		return ErrForbidden
	}
	return nil
}
