// Package persistencetest holds the behavior every persistence backend shares,
// expressed as tests that backends run against their own repository.
package persistencetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepositoryFactory returns an empty repository for a single subtest.
type RepositoryFactory func(t *testing.T) persistence.WorkflowRepository

// RunWorkflowRepositoryTests exercises the WorkflowRepository contract.
func RunWorkflowRepositoryTests(t *testing.T, newRepo RepositoryFactory) {
	t.Helper()

	t.Run("get missing workflow", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(context.Background(), "019a0000-0000-7000-8000-000000000000")
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("save and get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		wf := testutil.CreateTestWorkflow(testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithID("node_1"), testutil.WithConfig(&models.SendEmailConfig{
				To:      "ana@example.com",
				Subject: "Olá",
				Extra:   map[string]any{"cc": "bob@example.com"},
			}), testutil.WithNextNodes("node_2")),
			testutil.CreateTestNode(testutil.WithID("node_2"), testutil.WithSubtype(models.SubtypeWait),
				testutil.WithConfig(&models.WaitConfig{Amount: 2, Unit: models.UnitHours})),
			testutil.CreateTestNode(testutil.WithID("node_3"), testutil.WithConfig(nil)),
		))

		require.NoError(t, repo.Save(ctx, wf))

		got, err := repo.GetByID(ctx, wf.ID)
		require.NoError(t, err)
		AssertSameWorkflow(t, wf, got)
	})

	t.Run("save replaces existing workflow", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		wf := testutil.CreateTestWorkflow()
		require.NoError(t, repo.Save(ctx, wf))

		updated := wf.Clone()
		updated.Name = "Renamed"
		updated.Status = models.WorkflowStatusActive
		updated.Nodes = []models.NodeInstance{testutil.CreateTestNode(testutil.WithID("node_9"))}
		updated.UpdatedAt = wf.UpdatedAt.Add(time.Minute)
		require.NoError(t, repo.Save(ctx, updated))

		got, err := repo.GetByID(ctx, wf.ID)
		require.NoError(t, err)
		AssertSameWorkflow(t, updated, got)

		result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
	})

	t.Run("deleted workflows stay readable by id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		wf := testutil.CreateTestWorkflow(testutil.WithStatus(models.WorkflowStatusDeleted))
		require.NoError(t, repo.Save(ctx, wf))

		got, err := repo.GetByID(ctx, wf.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted())

		result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
		require.NoError(t, err)
		assert.Empty(t, result.Workflows)
		assert.Zero(t, result.TotalCount)
	})

	t.Run("list filters sorts and paginates", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		base := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
		active := models.WorkflowStatusActive

		for i, spec := range []struct {
			name   string
			status models.WorkflowStatus
		}{
			{"b", models.WorkflowStatusDraft},
			{"a", models.WorkflowStatusActive},
			{"c", models.WorkflowStatusDeleted},
			{"d", models.WorkflowStatusDraft},
		} {
			wf := testutil.CreateTestWorkflow(
				testutil.WithWorkflowName(spec.name),
				testutil.WithStatus(spec.status),
				testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Hour)),
			)
			require.NoError(t, repo.Save(ctx, wf))
		}

		testCases := []struct {
			name     string
			opts     persistence.ListWorkflowsOptions
			expected []string
			total    int64
			hasNext  bool
		}{
			{"default order", persistence.ListWorkflowsOptions{}, []string{"d", "a", "b"}, 3, false},
			{"oldest first", persistence.ListWorkflowsOptions{SortOrder: persistence.SortAsc}, []string{"b", "a", "d"}, 3, false},
			{"by name", persistence.ListWorkflowsOptions{SortBy: persistence.SortByName, SortOrder: persistence.SortAsc}, []string{"a", "b", "d"}, 3, false},
			{"status", persistence.ListWorkflowsOptions{Status: &active}, []string{"a"}, 1, false},
			{"include deleted", persistence.ListWorkflowsOptions{IncludeDeleted: true}, []string{"d", "c", "a", "b"}, 4, false},
			{"first page", persistence.ListWorkflowsOptions{Limit: 2}, []string{"d", "a"}, 3, true},
			{"offset only", persistence.ListWorkflowsOptions{Offset: 1}, []string{"a", "b"}, 3, false},
			{"past the end", persistence.ListWorkflowsOptions{Limit: 2, Offset: 5}, []string{}, 3, false},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				result, err := repo.ListWorkflows(ctx, tc.opts)
				require.NoError(t, err)

				names := make([]string, 0, len(result.Workflows))
				for _, wf := range result.Workflows {
					names = append(names, wf.Name)
				}

				assert.Equal(t, tc.expected, names)
				assert.Equal(t, tc.total, result.TotalCount)
				assert.Equal(t, tc.hasNext, result.HasNextPage)
			})
		}
	})

	t.Run("invalid sort parameters", func(t *testing.T) {
		repo := newRepo(t)

		for _, opts := range []persistence.ListWorkflowsOptions{
			{SortBy: "name; DROP TABLE workflows; --"},
			{SortBy: "unknown_column"},
			{SortOrder: "sideways"},
		} {
			_, err := repo.ListWorkflows(context.Background(), opts)
			require.Error(t, err)
			assert.True(t, persistence.IsInvalidSortField(err))
		}
	})
}

// AssertSameWorkflow compares two workflows by their JSON encoding, which
// ignores time zone representation differences between backends.
func AssertSameWorkflow(t *testing.T, expected, actual *models.Workflow) {
	t.Helper()

	want, err := json.Marshal(normalize(expected))
	require.NoError(t, err)

	got, err := json.Marshal(normalize(actual))
	require.NoError(t, err)

	assert.JSONEq(t, string(want), string(got))
}

func normalize(wf *models.Workflow) *models.Workflow {
	out := wf.Clone()
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()

	return out
}
