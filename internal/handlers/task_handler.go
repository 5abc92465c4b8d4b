package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperrors"
	"taskhub/internal/authz"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/pdf"
	"taskhub/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	reports pdf.Generator
}

func NewTaskHandler(service services.TaskService, reports pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, reports: reports}
}

type taskResponse struct {
	Task *models.Task `json:"task"`
}

func optionalStatus(c *gin.Context) *models.TaskStatus {
	if v := c.Query("status"); v != "" {
		s := models.TaskStatus(v)
		return &s
	}
	return nil
}

func optionalPriority(c *gin.Context) *models.TaskPriority {
	if v := c.Query("priority"); v != "" {
		p := models.TaskPriority(v)
		return &p
	}
	return nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.Validation(key, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}

// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        task  body      models.NewTask  true  "Task"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	var req models.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, "task:create", err)
		return
	}
	log.Printf("[task][create][ok] id=%d by=%d", task.ID, actor.ID)
	respond(c, http.StatusCreated, "Task created successfully", taskResponse{Task: task})
}

// @Summary      List tasks
// @Description  Filters are independent; sort_by falls back to created_at
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status         query     string  false  "pending|in_progress|completed|cancelled"
// @Param        priority       query     string  false  "low|medium|high|urgent"
// @Param        assigned_to    query     int     false  "Assignee id"
// @Param        created_by     query     int     false  "Creator id"
// @Param        search         query     string  false  "Title or description"
// @Param        due_date_from  query     string  false  "YYYY-MM-DD"
// @Param        due_date_to    query     string  false  "YYYY-MM-DD"
// @Param        sort_by        query     string  false  "created_at|updated_at|due_date|priority|status|title"
// @Param        sort_order     query     string  false  "ASC|DESC"
// @Param        page           query     int     false  "Page"
// @Param        limit          query     int     false  "Page size"
// @Success      200            {object}  Response
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{
		Status:    optionalStatus(c),
		Priority:  optionalPriority(c),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	var err error
	if filter.AssignedTo, err = queryInt64(c, "assigned_to"); err != nil {
		respondError(c, "task:list", err)
		return
	}
	if filter.CreatedBy, err = queryInt64(c, "created_by"); err != nil {
		respondError(c, "task:list", err)
		return
	}
	if filter.DueDateFrom, err = queryDate(c, "due_date_from"); err != nil {
		respondError(c, "task:list", err)
		return
	}
	if filter.DueDateTo, err = queryDate(c, "due_date_to"); err != nil {
		respondError(c, "task:list", err)
		return
	}

	page, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		respondError(c, "task:list", err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// GET /tasks/my-tasks?type=created|assigned|all
func (h *TaskHandler) MyTasks(c *gin.Context) {
	page, err := h.service.ListMine(c.Request.Context(), middleware.ActorFrom(c), models.MyTasksFilter{
		Relation: models.TaskRelation(c.DefaultQuery("type", string(models.RelationAll))),
		Status:   optionalStatus(c),
		Priority: optionalPriority(c),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, "task:mine", err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := h.service.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, "task:get", err)
		return
	}
	respond(c, http.StatusOK, "", taskResponse{Task: task})
}

// @Summary      Update a task
// @Description  Only fields present in the body are changed; null clears a nullable field
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Task id"
// @Param        task  body      models.TaskPatch  true  "Fields to change"
// @Success      200   {object}  Response
// @Failure      403   {object}  Response
// @Failure      404   {object}  Response
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := h.service.Update(c.Request.Context(), middleware.ActorFrom(c), id, patch)
	if err != nil {
		respondError(c, "task:update", err)
		return
	}
	respond(c, http.StatusOK, "Task updated successfully", taskResponse{Task: task})
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, "task:delete", err)
		return
	}
	respond(c, http.StatusOK, "Task deleted successfully", nil)
}

// PATCH /tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := h.service.SetStatus(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, "task:status", err)
		return
	}
	respond(c, http.StatusOK, "Task status updated successfully", taskResponse{Task: task})
}

// PATCH /tasks/:id/assign; a null assigned_to clears the assignment.
func (h *TaskHandler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssignedTo *int64 `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	task, err := h.service.Assign(c.Request.Context(), middleware.ActorFrom(c), id, req.AssignedTo)
	if err != nil {
		respondError(c, "task:assign", err)
		return
	}
	respond(c, http.StatusOK, "Task assigned successfully", taskResponse{Task: task})
}

// statisticsScope is global for admins and the caller's own tasks otherwise.
func statisticsScope(actor models.Actor) *int64 {
	if authz.IsAdmin(actor) {
		return nil
	}
	id := actor.ID
	return &id
}

// GET /tasks/statistics
func (h *TaskHandler) Statistics(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	stats, err := h.service.Statistics(c.Request.Context(), statisticsScope(actor))
	if err != nil {
		respondError(c, "task:stats", err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

// GET /tasks/statistics/report renders the statistics as a PDF.
func (h *TaskHandler) StatisticsReport(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	scope := statisticsScope(actor)
	stats, err := h.service.Statistics(c.Request.Context(), scope)
	if err != nil {
		respondError(c, "task:report", err)
		return
	}

	label := "All tasks"
	if scope != nil {
		label = "Tasks of " + actor.DisplayName
	}
	var buf bytes.Buffer
	if err := h.reports.StatisticsReport(&buf, pdf.StatisticsData{Scope: label, Stats: stats, GeneratedAt: time.Now()}); err != nil {
		respondError(c, "task:report", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="task-statistics-%s.pdf"`, time.Now().UTC().Format("20060102")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
