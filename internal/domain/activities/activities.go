package activities

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/categories"
)

var (
	ErrNotFound        = apperr.NotFound("activity not found")
	ErrInvalidCategory = apperr.Invalid("category_id does not match any of your categories")
	ErrInvalidParent   = apperr.Invalid("parent_activity_id does not match any of your activities")
	ErrCycle           = apperr.Invalid("an activity cannot be its own ancestor")
)

// MeasurementType selects how progress on an activity is measured.
type MeasurementType string

const (
	MeasurementBoolean    MeasurementType = "boolean"
	MeasurementUnits      MeasurementType = "units"
	MeasurementPercentage MeasurementType = "percentage"
)

// Valid reports whether m is a known measurement type.
func (m MeasurementType) Valid() bool {
	switch m {
	case MeasurementBoolean, MeasurementUnits, MeasurementPercentage:
		return true
	}
	return false
}

// Status is an activity's lifecycle state.
type Status string

const (
	StatusWantToDo   Status = "want_to_do"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToDo, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Activity is a goal or habit the user tracks.
type Activity struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"-"`
	CategoryID       int64           `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	CategoryColor    string          `json:"category_color"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	MeasurementType  MeasurementType `json:"measurement_type"`
	TargetValue      *float64        `json:"target_value"`
	TargetUnit       string          `json:"target_unit"`
	ManualPercentage *float64        `json:"manual_percentage"`
	Status           Status          `json:"status"`
	StartDate        *civil.Date     `json:"start_date"`
	EndDate          *civil.Date     `json:"end_date"`
	Deadline         *civil.Date     `json:"deadline"`
	ParentID         *int64          `json:"parent_activity_id"`
	ChildrenCount    int             `json:"children_count"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	CategoryID int64
	Status     Status
}

// Repository abstracts activity persistence. Reads fill in the category
// name and colour and the number of direct children.
type Repository interface {
	List(ctx context.Context, userID int64, filter Filter) ([]Activity, error)
	Get(ctx context.Context, userID, id int64) (Activity, error)
	Create(ctx context.Context, activity Activity) (Activity, error)
	Update(ctx context.Context, activity Activity) (Activity, error)
	// Delete removes the activity with its progress and schedules. Children
	// are detached and ledger rows lose their activity reference.
	Delete(ctx context.Context, userID, id int64) error
	// Totals sums logged progress values per activity.
	Totals(ctx context.Context, userID int64) (map[int64]float64, error)
	// Count counts a user's activities, or every activity when userID is 0.
	Count(ctx context.Context, userID int64) (int, error)
}

// CreateInput describes a new activity. The measurement type is derived
// from which targets are present.
type CreateInput struct {
	CategoryID       int64
	Name             string
	Description      string
	TargetValue      *float64
	TargetUnit       string
	ManualPercentage *float64
	Status           Status
	StartDate        *civil.Date
	EndDate          *civil.Date
	Deadline         *civil.Date
	ParentID         *int64
}

// UpdateInput carries the fields to change; nil leaves a field untouched.
type UpdateInput struct {
	CategoryID       *int64
	Name             *string
	Description      *string
	MeasurementType  *MeasurementType
	TargetValue      *float64
	TargetUnit       *string
	ManualPercentage *float64
	Status           *Status
	StartDate        *civil.Date
	EndDate          *civil.Date
	Deadline         *civil.Date
	ParentID         *int64
	ClearParent      bool
}

// View is an activity with its derived progress figures.
type View struct {
	Activity
	Progress           float64 `json:"progress"`
	ProgressPercentage float64 `json:"progress_percentage"`
	LoggedTotal        float64 `json:"logged_total"`
}

// ChildSummary is the short form of a sub-activity.
type ChildSummary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
}

// Detail is a single activity with its parent and children.
type Detail struct {
	View
	ParentName string         `json:"parent_name,omitempty"`
	Children   []ChildSummary `json:"children"`
}

// Node is one entry of the activity tree.
type Node struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Status        Status  `json:"status"`
	CategoryName  string  `json:"category_name"`
	CategoryColor string  `json:"category_color"`
	Progress      float64 `json:"progress"`
	ChildrenCount int     `json:"children_count"`
	Children      []Node  `json:"children"`
}

// Service provides activity business logic.
type Service interface {
	List(ctx context.Context, userID int64, filter Filter) ([]View, error)
	Get(ctx context.Context, userID, id int64) (Detail, error)
	Create(ctx context.Context, userID int64, input CreateInput) (Activity, error)
	Update(ctx context.Context, userID, id int64, input UpdateInput) (Activity, error)
	Delete(ctx context.Context, userID, id int64) error
	Hierarchy(ctx context.Context, userID int64) ([]Node, error)
}

type service struct {
	repo       Repository
	categories categories.Repository
	now        func() time.Time
}

// NewService builds an activity service. Category ownership is checked
// against cats.
func NewService(repo Repository, cats categories.Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, categories: cats, now: now}
}

func (s *service) List(ctx context.Context, userID int64, filter Filter) ([]View, error) {
	list, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(list))
	for _, a := range list {
		views = append(views, NewView(a, totals[a.ID]))
	}
	return views, nil
}

// NewView derives the progress figures of a.
func NewView(a Activity, loggedTotal float64) View {
	return View{
		Activity:           a,
		Progress:           DisplayProgress(a, loggedTotal),
		ProgressPercentage: PercentComplete(a, loggedTotal),
		LoggedTotal:        loggedTotal,
	}
}

func (s *service) Get(ctx context.Context, userID, id int64) (Detail, error) {
	activity, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Detail{}, err
	}
	all, err := s.repo.List(ctx, userID, Filter{})
	if err != nil {
		return Detail{}, err
	}
	totals, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{View: NewView(activity, totals[activity.ID]), Children: []ChildSummary{}}
	for _, other := range all {
		if activity.ParentID != nil && other.ID == *activity.ParentID {
			detail.ParentName = other.Name
		}
		if other.ParentID != nil && *other.ParentID == activity.ID {
			detail.Children = append(detail.Children, ChildSummary{
				ID:       other.ID,
				Name:     other.Name,
				Status:   other.Status,
				Progress: PercentComplete(other, totals[other.ID]),
			})
		}
	}
	return detail, nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (Activity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Activity{}, apperr.Required("name")
	}
	if input.CategoryID <= 0 {
		return Activity{}, apperr.Required("category_id")
	}
	if err := s.checkCategory(ctx, userID, input.CategoryID); err != nil {
		return Activity{}, err
	}

	status := input.Status
	if status == "" {
		status = StatusWantToDo
	}
	if !status.Valid() {
		return Activity{}, apperr.Invalidf("unknown status %q", status)
	}

	activity := Activity{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Deadline:    input.Deadline,
		CreatedAt:   s.now().UTC(),
	}

	unit := strings.TrimSpace(input.TargetUnit)
	switch {
	case input.TargetValue != nil && *input.TargetValue > 0 && unit != "":
		activity.MeasurementType = MeasurementUnits
		activity.TargetValue = input.TargetValue
		activity.TargetUnit = unit
	case input.ManualPercentage != nil:
		activity.MeasurementType = MeasurementPercentage
		activity.ManualPercentage = input.ManualPercentage
	default:
		activity.MeasurementType = MeasurementBoolean
	}

	if input.ParentID != nil {
		if _, err := s.repo.Get(ctx, userID, *input.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Activity{}, ErrInvalidParent
			}
			return Activity{}, err
		}
		activity.ParentID = input.ParentID
	}

	if err := validate(activity); err != nil {
		return Activity{}, err
	}
	return s.repo.Create(ctx, activity)
}

func (s *service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Activity, error) {
	activity, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Activity{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Activity{}, apperr.Invalid("name must not be empty")
		}
		activity.Name = name
	}
	if input.Description != nil {
		activity.Description = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil && *input.CategoryID != activity.CategoryID {
		if err := s.checkCategory(ctx, userID, *input.CategoryID); err != nil {
			return Activity{}, err
		}
		activity.CategoryID = *input.CategoryID
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return Activity{}, apperr.Invalidf("unknown status %q", *input.Status)
		}
		activity.Status = *input.Status
	}
	if input.TargetValue != nil {
		activity.TargetValue = input.TargetValue
	}
	if input.TargetUnit != nil {
		activity.TargetUnit = strings.TrimSpace(*input.TargetUnit)
	}
	if input.ManualPercentage != nil {
		activity.ManualPercentage = input.ManualPercentage
	}
	if input.StartDate != nil {
		activity.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		activity.EndDate = input.EndDate
	}
	if input.Deadline != nil {
		activity.Deadline = input.Deadline
	}

	if input.MeasurementType != nil && *input.MeasurementType != activity.MeasurementType {
		if !input.MeasurementType.Valid() {
			return Activity{}, apperr.Invalidf("unknown measurement_type %q", *input.MeasurementType)
		}
		activity.MeasurementType = *input.MeasurementType
		resetForType(&activity)
	}

	switch {
	case input.ClearParent:
		activity.ParentID = nil
	case input.ParentID != nil:
		if err := s.checkParent(ctx, userID, id, *input.ParentID); err != nil {
			return Activity{}, err
		}
		activity.ParentID = input.ParentID
	}

	if err := validate(activity); err != nil {
		return Activity{}, err
	}
	return s.repo.Update(ctx, activity)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *service) Hierarchy(ctx context.Context, userID int64) ([]Node, error) {
	all, err := s.repo.List(ctx, userID, Filter{})
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(all, totals), nil
}

// BuildHierarchy nests activities under their parents. Activities without a
// parent, or whose parent is not in list, become roots. Siblings keep the
// order of list.
func BuildHierarchy(list []Activity, totals map[int64]float64) []Node {
	known := make(map[int64]bool, len(list))
	for _, a := range list {
		known[a.ID] = true
	}

	children := make(map[int64][]Activity)
	var roots []Activity
	for _, a := range list {
		if a.ParentID == nil || !known[*a.ParentID] || *a.ParentID == a.ID {
			roots = append(roots, a)
			continue
		}
		children[*a.ParentID] = append(children[*a.ParentID], a)
	}

	visited := make(map[int64]bool, len(list))
	var build func(level []Activity) []Node
	build = func(level []Activity) []Node {
		nodes := make([]Node, 0, len(level))
		for _, a := range level {
			if visited[a.ID] {
				continue
			}
			visited[a.ID] = true
			nodes = append(nodes, Node{
				ID:            a.ID,
				Name:          a.Name,
				Status:        a.Status,
				CategoryName:  a.CategoryName,
				CategoryColor: a.CategoryColor,
				Progress:      PercentComplete(a, totals[a.ID]),
				ChildrenCount: len(children[a.ID]),
				Children:      build(children[a.ID]),
			})
		}
		return nodes
	}
	return build(roots)
}

func (s *service) checkCategory(ctx context.Context, userID, categoryID int64) error {
	if _, err := s.categories.Get(ctx, userID, categoryID); err != nil {
		if errors.Is(err, categories.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

// checkParent rejects parents that are not owned by userID or that would
// make id its own ancestor.
func (s *service) checkParent(ctx context.Context, userID, id, parentID int64) error {
	if parentID == id {
		return ErrCycle
	}
	seen := map[int64]bool{id: true}
	current := parentID
	for {
		parent, err := s.repo.Get(ctx, userID, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				if current == parentID {
					return ErrInvalidParent
				}
				return nil
			}
			return err
		}
		seen[current] = true
		if parent.ParentID == nil {
			return nil
		}
		if seen[*parent.ParentID] {
			if *parent.ParentID == id {
				return ErrCycle
			}
			return nil
		}
		current = *parent.ParentID
	}
}

// resetForType clears the targets that do not belong to the measurement
// type.
func resetForType(a *Activity) {
	switch a.MeasurementType {
	case MeasurementUnits:
		a.ManualPercentage = nil
	case MeasurementPercentage:
		a.TargetValue = nil
		a.TargetUnit = ""
		if a.ManualPercentage == nil {
			zero := 0.0
			a.ManualPercentage = &zero
		}
	default:
		a.TargetValue = nil
		a.TargetUnit = ""
		a.ManualPercentage = nil
	}
}

func validate(a Activity) error {
	if a.TargetValue != nil && *a.TargetValue < 0 {
		return apperr.Invalid("target_value must not be negative")
	}
	if a.ManualPercentage != nil && (*a.ManualPercentage < 0 || *a.ManualPercentage > 100) {
		return apperr.Invalid("manual_percentage must be between 0 and 100")
	}
	if a.StartDate != nil && a.EndDate != nil && a.EndDate.Before(*a.StartDate) {
		return apperr.Invalid("end_date must not be before start_date")
	}
	return nil
}

// SortByCreated orders activities oldest first, breaking ties by id.
func SortByCreated(list []Activity) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
