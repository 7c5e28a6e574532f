package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// TaskHandler serves the idea's task board.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleList returns the idea's tasks in board order.
//
// HTTP: GET /api/ideas/{ideaID}/tasks?status=to_do
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID, chi.URLParam(r, "ideaID"), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate appends a task to the board.
//
// HTTP: POST /api/ideas/{ideaID}/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleGenerate asks the assistant for the initial task list.
//
// HTTP: POST /api/ideas/{ideaID}/tasks/generate
func (h *TaskHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.tasks.Generate(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleGenerateMore asks for follow-up tasks given what is already done.
//
// HTTP: POST /api/ideas/{ideaID}/tasks/generate-more
func (h *TaskHandler) HandleGenerateMore(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.tasks.GenerateMore(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleUpdate applies a partial update. Omitted fields are left alone.
//
// HTTP: PUT /api/tasks/{taskID}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch service.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, chi.URLParam(r, "taskID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HTTP: DELETE /api/tasks/{taskID}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, chi.URLParam(r, "taskID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Name string `json:"name"`
}

// HandleAddTag attaches a tag by name, creating the tag if needed.
//
// HTTP: POST /api/tasks/{taskID}/tags
// REQUEST BODY: {"name": "marketing"}
func (h *TaskHandler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in tagRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	tag, err := h.tasks.AddTag(r.Context(), userID, chi.URLParam(r, "taskID"), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// HTTP: DELETE /api/tasks/{taskID}/tags/{tagID}
func (h *TaskHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.tasks.RemoveTag(r.Context(), userID, chi.URLParam(r, "taskID"), chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
