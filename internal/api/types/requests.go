package types

// ProjectCreateRequest carries the fields a nonprofit supplies for a new brief.
type ProjectCreateRequest struct {
	Title           string   `json:"title" validate:"required"`
	Problem         string   `json:"problem"`
	Outcomes        string   `json:"outcomes"`
	MethodsRequired string   `json:"methods_required"`
	Timeline        string   `json:"timeline"`
	BudgetMin       *float64 `json:"budget_min" validate:"omitempty,gte=0"`
	DataSensitivity *string  `json:"data_sensitivity" validate:"omitempty,oneof=Low Medium High"`
}

type ProjectUpdateRequest struct {
	Title           *string  `json:"title"`
	Problem         *string  `json:"problem"`
	Outcomes        *string  `json:"outcomes"`
	MethodsRequired *string  `json:"methods_required"`
	Timeline        *string  `json:"timeline"`
	BudgetMin       *float64 `json:"budget_min" validate:"omitempty,gte=0"`
	DataSensitivity *string  `json:"data_sensitivity" validate:"omitempty,oneof=Low Medium High"`
	Status          *string  `json:"status"`
}

// ReviewRequest carries an admin's decision on a pending_review project.
type ReviewRequest struct {
	Action           string `json:"action" validate:"required,oneof=approve reject request_changes"`
	Feedback         string `json:"feedback"`
	ChangesRequested string `json:"changes_requested"`
}

// Milestone due dates travel as date-only strings ("2026-08-30").
type MilestoneCreateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

type MilestoneUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}
