// Package file provides a file system backed persistence implementation. Each
// workflow is stored as an indented JSON document under <root>/workflows.
package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/arcsuite/arcflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root
// directory. A leading file:// scheme is stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies that the root directory exists and is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("file persistence root %s: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file persistence root %s is not a directory", fp.root)
	}

	return nil
}

// WorkflowRepository returns the workflow repository implementation for file persistence.
func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}
