package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type fakeProjectRepo struct {
	projects map[string]*models.Project
	findErr  error
	updated  int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[string]*models.Project{}}
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	project, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return project, nil
}

func (f *fakeProjectRepo) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(out)}, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, project *models.Project) error {
	f.projects[project.ID] = project
	f.updated++
	return nil
}

func TestProjectGetMissingIsNotFound(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestProjectGetRepoFailureIsInternal(t *testing.T) {
	repo := newFakeProjectRepo()
	repo.findErr = errors.New("connection reset by peer")
	svc := NewProjectService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "proj-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestProjectUpdateMissingIsNotFound(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), nil, nil)

	name := "Ring Road Extension"
	_, err := svc.Update(context.Background(), "missing", UpdateProjectRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProjectCloseIsIdempotent(t *testing.T) {
	repo := newFakeProjectRepo()
	repo.projects["proj-1"] = &models.Project{ID: "proj-1", Name: "Ring Road Extension", Status: models.ProjectClosed}
	svc := NewProjectService(repo, nil, nil)

	project, err := svc.Close(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectClosed, project.Status)
	assert.Zero(t, repo.updated)
}
