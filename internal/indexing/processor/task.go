package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// newTaskHandler creates a task projection. The event lacks the scheduling
// window, so start and end come from the act contract's task view.
//
// Unlike the four project-mutation stashes, a stashed task creation is not
// replayed when its project arrives. The stash only makes the lost event
// observable; see pending.Cache.
type newTaskHandler struct {
	deps Deps
}

func (h *newTaskHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.NewTaskEvent)
	if !ok {
		return wrongType(event)
	}

	networkID, err := domain.NetworkIDFromEventID(e.EventID())
	if err != nil {
		return OutcomeFailed, err
	}

	project, err := h.deps.Projects.GetByNetwork(ctx, e.ProjectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		h.deps.Pending.StashTask(domain.DependencyKey(networkID, e.ProjectID), e)
		h.deps.Logger.Warn("project not indexed yet, task creation stashed without replay",
			"project_id", e.ProjectID, "network_id", networkID, "task_id", e.TaskID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", e.ProjectID, err)
	}

	_, err = h.deps.Tasks.Get(ctx, project.ID, e.TaskID)
	if err == nil {
		h.deps.Logger.Debug("task already indexed",
			"project_id", e.ProjectID, "task_id", e.TaskID)
		return OutcomeSkippedDuplicate, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return OutcomeFailed, fmt.Errorf("get task %d of project %d: %w", e.TaskID, e.ProjectID, err)
	}

	client, err := h.deps.Chains.For(networkID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("task %d of project %d: %w", e.TaskID, e.ProjectID, err)
	}
	timing, err := client.TaskTime(ctx, e.ProjectID, e.TaskID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("read task timing %d/%d: %w", e.ProjectID, e.TaskID, err)
	}

	task := &domain.Task{
		ProjectRef:  project.ID,
		TaskID:      e.TaskID,
		CheckAmount: e.CheckAmount,
		StartTime:   timing.StartTime,
		EndTime:     timing.EndTime,
		Payload:     e.Payload,
		Completed:   false,
		Canceled:    false,
	}
	if err := h.deps.Tasks.Insert(ctx, task); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return OutcomeSkippedDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("insert task %d of project %d: %w", e.TaskID, e.ProjectID, err)
	}

	h.deps.Logger.Info("task indexed",
		"project_id", e.ProjectID, "network_id", networkID, "task_id", e.TaskID)
	return OutcomeApplied, nil
}

// completeTaskHandler latches a task's completed flag. The latch is one-way.
type completeTaskHandler struct {
	deps Deps
}

func (h *completeTaskHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.CompleteTaskEvent)
	if !ok {
		return wrongType(event)
	}

	return latchTask(ctx, h.deps, e.EventID(), e.ProjectID, e.TaskID, func(t *domain.Task) bool {
		if t.Completed {
			return false
		}
		t.Completed = true
		return true
	})
}

// cancelTaskHandler latches a task's canceled flag. The latch is one-way.
type cancelTaskHandler struct {
	deps Deps
}

func (h *cancelTaskHandler) Process(ctx context.Context, event domain.Event) (Outcome, error) {
	e, ok := event.(domain.CancelTaskEvent)
	if !ok {
		return wrongType(event)
	}

	return latchTask(ctx, h.deps, e.EventID(), e.ProjectID, e.TaskID, func(t *domain.Task) bool {
		if t.Canceled {
			return false
		}
		t.Canceled = true
		return true
	})
}

// latchTask applies a one-way flag flip. Missing project or task is a
// neutral skip; an already-set flag is a duplicate.
func latchTask(
	ctx context.Context,
	deps Deps,
	eventID string,
	projectID, taskID int64,
	latch func(*domain.Task) bool,
) (Outcome, error) {
	networkID, err := domain.NetworkIDFromEventID(eventID)
	if err != nil {
		return OutcomeFailed, err
	}

	project, err := deps.Projects.GetByNetwork(ctx, projectID, networkID)
	if errors.Is(err, storage.ErrNotFound) {
		deps.Logger.Warn("project not indexed, ignoring task status event",
			"project_id", projectID, "network_id", networkID, "task_id", taskID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get project %d: %w", projectID, err)
	}

	task, err := deps.Tasks.Get(ctx, project.ID, taskID)
	if errors.Is(err, storage.ErrNotFound) {
		deps.Logger.Warn("task not indexed, ignoring task status event",
			"project_id", projectID, "network_id", networkID, "task_id", taskID)
		return OutcomeSkippedNotReady, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("get task %d of project %d: %w", taskID, projectID, err)
	}

	if !latch(task) {
		return OutcomeSkippedDuplicate, nil
	}

	if err := deps.Tasks.Replace(ctx, task); err != nil {
		return OutcomeFailed, fmt.Errorf("update task %d of project %d: %w", taskID, projectID, err)
	}

	deps.Logger.Info("task status updated",
		"project_id", projectID, "network_id", networkID, "task_id", taskID)
	return OutcomeApplied, nil
}
