package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
	"rentstock-backend/internal/repository"
	"rentstock-backend/internal/utils"
)

type shortfallReporter struct {
	taskRepo repository.TaskRepository
	notifier Notifier
	defLoc   *time.Location
	log      *slog.Logger
}

func NewShortfallReporter(taskRepo repository.TaskRepository, notifier Notifier, defaultLocation *time.Location, log *slog.Logger) ShortfallReporter {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &shortfallReporter{
		taskRepo: taskRepo,
		notifier: notifier,
		defLoc:   defaultLocation,
		log:      logger.For(log, "shortfall_reporter"),
	}
}

func (s *shortfallReporter) RaiseTask(ctx context.Context, org *domain.Organization, warnings []domain.ShortfallWarning, now time.Time) (*domain.OperatorTask, []domain.ShortfallWarning, error) {
	loc := s.defLoc
	if org.Timezone != "" {
		if l, err := time.LoadLocation(org.Timezone); err == nil {
			loc = l
		}
	}
	day := utils.DayKey(now, loc)

	task, err := s.taskRepo.GetByDay(ctx, org.ID, day)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		task = &domain.OperatorTask{
			OrgID:      org.ID,
			Day:        day,
			Title:      fmt.Sprintf("Failed stock transfers on %s", day),
			Attributes: map[string]string{},
		}
	}

	reported := make(map[int64]bool, len(task.MovementIDs))
	for _, id := range task.MovementIDs {
		reported[id] = true
	}
	var fresh []domain.ShortfallWarning
	for _, w := range warnings {
		if reported[w.Movement.ID] {
			continue
		}
		reported[w.Movement.ID] = true
		fresh = append(fresh, w)
		task.MovementIDs = append(task.MovementIDs, w.Movement.ID)
	}
	if len(fresh) == 0 {
		return task, nil, nil
	}

	task.Message = summarize(task.Message, fresh, loc)
	if task.Attributes == nil {
		task.Attributes = map[string]string{}
	}
	task.Attributes["movement_count"] = strconv.Itoa(len(task.MovementIDs))
	if err := s.taskRepo.Upsert(ctx, task); err != nil {
		return nil, nil, err
	}
	logger.Event(ctx, s.log, "shortfall_task_raised",
		"org_id", org.ID, "task_id", task.ID, "day", day, "new_movements", len(fresh), "total_movements", len(task.MovementIDs))

	// Notification failures leave the recorded task in place
	if err := s.notifier.NotifyShortfall(ctx, org, task, fresh); err != nil {
		s.log.ErrorContext(ctx, "Failed to notify operators", "org_id", org.ID, "task_id", task.ID, "error", err)
	}
	return task, fresh, nil
}

func (s *shortfallReporter) ListTasks(ctx context.Context, orgID int32, limit int32) ([]domain.OperatorTask, error) {
	return s.taskRepo.ListByOrg(ctx, orgID, limit)
}

func summarize(previous string, warnings []domain.ShortfallWarning, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(previous)
	for _, w := range warnings {
		m := w.Movement
		fmt.Fprintf(&b, "Movement %d (%s): item %d, %d of %d units missing, %d -> %d, scheduled %s\n",
			m.ID, m.Reference, m.ItemID, w.Shortage, m.Quantity, m.SourceID, m.DestinationID,
			m.ScheduledAt.In(loc).Format("2006-01-02 15:04"))
	}
	return b.String()
}
