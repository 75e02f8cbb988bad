package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/report"
)

// ProjectRepository reads stored project applications. Metadata feeds
// the prompt builder and the reconciler; nothing here writes.
type ProjectRepository interface {
	FetchMetadata(ctx context.Context, projectID string) (*report.ProjectMetadata, error)
}

type projectRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewProjectRepository(pool *pgxpool.Pool, logger *slog.Logger) ProjectRepository {
	return &projectRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *projectRepository) FetchMetadata(ctx context.Context, projectID string) (*report.ProjectMetadata, error) {
	const q = `SELECT id, err, project_objectives, intended_beneficiaries, planned_activities, expenses
FROM err_projects WHERE id = $1`

	var (
		m             report.ProjectMetadata
		errID         *string
		objectives    *string
		beneficiaries *string
		activitiesRaw []byte
		expensesRaw   []byte
	)
	err := r.pool.QueryRow(ctx, q, projectID).
		Scan(&m.ID, &errID, &objectives, &beneficiaries, &activitiesRaw, &expensesRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("PROJECT_NOT_FOUND",
			fmt.Sprintf("no project with id %q", projectID), common.ErrMetadataFetch)
	}
	if err != nil {
		r.logger.Error("failed to fetch project metadata", "project_id", projectID, "error", err)
		return nil, common.NewAppError("METADATA_FETCH", err.Error(), common.ErrMetadataFetch)
	}

	if errID != nil {
		m.ERRID = *errID
	}
	if objectives != nil {
		m.ProjectObjectives = *objectives
	}
	if beneficiaries != nil {
		m.IntendedBeneficiaries = *beneficiaries
	}
	if len(activitiesRaw) > 0 {
		if err := json.Unmarshal(activitiesRaw, &m.PlannedActivities); err != nil {
			r.logger.Error("malformed planned_activities json", "project_id", projectID, "error", err)
			return nil, common.NewAppError("METADATA_FETCH", "malformed planned_activities: "+err.Error(), common.ErrMetadataFetch)
		}
	}
	if len(expensesRaw) > 0 {
		if err := json.Unmarshal(expensesRaw, &m.Expenses); err != nil {
			r.logger.Error("malformed expenses json", "project_id", projectID, "error", err)
			return nil, common.NewAppError("METADATA_FETCH", "malformed expenses: "+err.Error(), common.ErrMetadataFetch)
		}
	}
	return &m, nil
}
