// Package planner turns natural-language queries into persisted action
// plans.
package planner

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"planai/errdefs"
	"planai/fileops"
	"planai/models"
	"planai/providers/contracts"
)

// DefaultDir is where plans land when SavePlan gets no explicit path.
const DefaultDir = "plans"

type Planner struct {
	provider contracts.ActionProvider
	plansDir string
}

func New(provider contracts.ActionProvider, plansDir string) *Planner {
	if plansDir == "" {
		plansDir = DefaultDir
	}
	return &Planner{provider: provider, plansDir: plansDir}
}

// CreatePlan asks the provider for actions and wraps them in a plan with
// a fresh ID and timestamp. The plan is not persisted; call SavePlan.
func (p *Planner) CreatePlan(ctx context.Context, query string) (*models.Plan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errdefs.Validation("query must not be empty")
	}

	actions, err := p.provider.GenerateActions(ctx, query)
	if err != nil {
		return nil, &errdefs.PlanError{Msg: "provider failed to generate actions", Cause: err}
	}

	for i := range actions {
		actions[i].Type = actions[i].Type.Normalize()
	}

	return &models.Plan{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     query,
		Actions:   actions,
	}, nil
}

// SavePlan writes the plan to path, or to <plansDir>/<id>.json when path
// is empty. A .yaml or .yml extension selects YAML encoding. An existing
// file at the target is overwritten.
func (p *Planner) SavePlan(plan *models.Plan, path string) (string, error) {
	if plan == nil {
		return "", errdefs.Validation("plan must not be nil")
	}
	if plan.ID == "" {
		return "", errdefs.Validation("plan has no ID")
	}

	if path == "" {
		path = filepath.Join(p.plansDir, plan.ID+".json")
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(plan)
	default:
		data, err = json.MarshalIndent(plan, "", "  ")
	}
	if err != nil {
		return "", &errdefs.PlanError{Msg: "encoding plan", Cause: err}
	}

	if err := fileops.WriteAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LoadPlan reads a plan back from disk, decoding by file extension.
func LoadPlan(path string) (*models.Plan, error) {
	content, err := fileops.Read(path)
	if err != nil {
		return nil, err
	}

	var plan models.Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(content), &plan)
	default:
		err = json.Unmarshal([]byte(content), &plan)
	}
	if err != nil {
		return nil, &errdefs.PlanError{Msg: "decoding plan file " + path, Cause: err}
	}

	for i := range plan.Actions {
		plan.Actions[i].Type = plan.Actions[i].Type.Normalize()
	}
	return &plan, nil
}
