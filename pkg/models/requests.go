package models

// CreateWorkflowRequest is the body of a workflow creation call.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"             validate:"required"`
	Description string         `json:"description"`
	Nodes       []NodeInstance `json:"nodes"`
	Status      WorkflowStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active inactive"`
}

// UpdateWorkflowRequest is the body of a partial workflow update.
// Absent fields keep their stored value; Nodes replaces the whole list.
type UpdateWorkflowRequest struct {
	Name        *string         `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string         `json:"description,omitempty"`
	Nodes       *[]NodeInstance `json:"nodes,omitempty"`
	Status      *WorkflowStatus `json:"status,omitempty"      validate:"omitempty,oneof=draft active inactive"`
}

// Empty reports whether the update carries no field.
func (r *UpdateWorkflowRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Nodes == nil && r.Status == nil
}
