package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/repository"
)

// SummaryService answers "how am I doing today" from the local store alone.
type SummaryService struct {
	foodLogs      repository.FoodLogRepository
	goals         repository.GoalRepository
	healthMetrics repository.HealthMetricRepository
}

func NewSummaryService(
	foodLogs repository.FoodLogRepository,
	goals repository.GoalRepository,
	healthMetrics repository.HealthMetricRepository,
) *SummaryService {
	return &SummaryService{
		foodLogs:      foodLogs,
		goals:         goals,
		healthMetrics: healthMetrics,
	}
}

// Day summarizes the UTC calendar day containing at. Calories burned, when
// recorded, raise the remaining calorie budget.
func (s *SummaryService) Day(ctx context.Context, ownerID string, at time.Time) (*model.DaySummary, error) {
	date := at.UTC().Format(model.DateLayout)

	logs, err := s.foodLogs.ByDate(ctx, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("load food logs: %w", err)
	}

	var intake model.DailyNutritionRow
	for _, log := range logs {
		intake.Calories += log.Calories * log.Servings
		intake.ProteinG += log.ProteinG * log.Servings
		intake.CarbsG += log.CarbsG * log.Servings
		intake.FatG += log.FatG * log.Servings
	}
	intake.Date = date

	goal, err := s.goals.Current(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}

	summary := &model.DaySummary{
		Date:    date,
		Intake:  intake.Rounded(),
		Goal:    goal.Macros,
		Entries: len(logs),
	}

	burned, err := s.healthMetrics.Today(ctx, ownerID, model.MetricCaloriesBurned, at)
	if err != nil {
		return nil, fmt.Errorf("load calories burned: %w", err)
	}

	budget := goal.Calories
	if burned != nil {
		summary.Burned = &burned.Value
		budget += burned.Value
	}

	summary.Remaining = model.DailyNutritionRow{
		Date:     date,
		Calories: budget - intake.Calories,
		ProteinG: goal.ProteinG - intake.ProteinG,
		CarbsG:   goal.CarbsG - intake.CarbsG,
		FatG:     goal.FatG - intake.FatG,
	}.Rounded()

	return summary, nil
}
