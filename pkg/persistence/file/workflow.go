package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/persistence"
)

const workflowsDir = "workflows"

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root string // File system root for storing workflows
	mu   sync.RWMutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, workflowsDir)
}

func (wr *WorkflowRepository) path(op, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", persistence.NewWorkflowError(op, id, persistence.ErrWorkflowNotFound)
	}

	return filepath.Join(wr.dir(), id+".json"), nil
}

// ListWorkflows loads every stored workflow and filters, sorts and paginates in memory.
func (wr *WorkflowRepository) ListWorkflows(_ context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	wr.mu.RLock()
	defer wr.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	all := make([]*models.Workflow, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		workflow, err := wr.read(filepath.Join(wr.dir(), name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to load workflow %s: %w", strings.TrimSuffix(name, ".json"), err)
		}

		all = append(all, workflow)
	}

	return persistence.ApplyListOptions(all, opts), nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	filePath, err := wr.path("GetByID", workflowID)
	if err != nil {
		return nil, err
	}

	wr.mu.RLock()
	defer wr.mu.RUnlock()

	workflow, err := wr.read(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) read(filePath string) (*models.Workflow, error) {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}

	var workflow models.Workflow
	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(filePath), err)
	}

	return &workflow, nil
}

// Save writes the workflow atomically through a temporary file and rename.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	filePath, err := wr.path("Save", workflow.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := os.MkdirAll(wr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	tmp, err := os.CreateTemp(wr.dir(), "."+workflow.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for workflow %s: %w", workflow.ID, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}
