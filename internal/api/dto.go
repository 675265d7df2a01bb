package api

// submitRequest is the wire shape of POST /submit, matching spec.md
// §6's table verbatim (snake_case field names, not the internal
// model's Go-cased equivalents).
type submitRequest struct {
	ImageName   string           `json:"image_name"`
	CallbackURL string           `json:"callback_url"`
	Tasks       []submitTaskSpec `json:"tasks"`
}

type submitTaskSpec struct {
	TaskName string   `json:"task_name"`
	TaskArgs []string `json:"task_args"`
}

// resultRequest is the wire shape of POST /result/{job_id}.
type resultRequest struct {
	TaskName   string     `json:"task_name"`
	TaskStatus int        `json:"task_status"`
	TaskResult resultBody `json:"task_result"`
}

type resultBody struct {
	Stdout *string `json:"stdout"`
	Stderr *string `json:"stderr"`
}

type submitResponse struct {
	ID string `json:"id"`
}
