// Package mock is an offline ActionProvider that turns a small set of
// phrased queries into actions directly. It exists so the CLI stays
// usable without any API key and so the planning pipeline can be tested
// deterministically.
package mock

import (
	"context"
	"fmt"
	"regexp"

	"planai/models"
	"planai/providers/contracts"
	"planai/utils"
)

var (
	createRe = regexp.MustCompile(`(?i)^create\s+(?:(?:a|the)\s+)?(?:file\s+)?(\S+?)(?:\s+with\s+content\s+'([^']*)'|\s+with\s+content\s+"([^"]*)")?$`)
	deleteRe = regexp.MustCompile(`(?i)^(?:delete|remove)\s+(?:(?:a|the)\s+)?(?:file\s+)?(\S+)$`)
	readRe   = regexp.MustCompile(`(?i)^(?:read|show)\s+(?:(?:a|the)\s+)?(?:file\s+)?(\S+)$`)
)

type mockProvider struct{}

// NewMockActionProvider builds the offline provider.
func NewMockActionProvider() contracts.ActionProvider {
	return &mockProvider{}
}

func (p *mockProvider) Name() string {
	return "mock"
}

func (p *mockProvider) GenerateActions(_ context.Context, query string) ([]models.Action, error) {
	if m := createRe.FindStringSubmatch(query); m != nil {
		content := m[2]
		if content == "" {
			content = m[3]
		}
		return []models.Action{{
			Type:        models.ActionCreate,
			Path:        m[1],
			Content:     models.Ptr(content),
			Description: fmt.Sprintf("create %s", m[1]),
		}}, nil
	}
	if m := deleteRe.FindStringSubmatch(query); m != nil {
		return []models.Action{{
			Type:        models.ActionDelete,
			Path:        m[1],
			Description: fmt.Sprintf("delete %s", m[1]),
		}}, nil
	}
	if m := readRe.FindStringSubmatch(query); m != nil {
		return []models.Action{{
			Type:        models.ActionRead,
			Path:        m[1],
			Description: fmt.Sprintf("read %s", m[1]),
		}}, nil
	}
	return []models.Action{utils.InfoAction(fmt.Sprintf("no file action recognized for: %s", query))}, nil
}
