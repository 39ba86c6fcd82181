package present

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intelliment/puppet-integration/internal/domain"
)

func TestFormatServices(t *testing.T) {
	tests := []struct {
		name     string
		services []domain.Service
		want     string
	}{
		{"nil", nil, "any"},
		{"empty", []domain.Service{}, "any"},
		{"single", []domain.Service{{Name: "http", Ports: []domain.Port{"80"}}}, "http -> 80"},
		{
			"several ports and services",
			[]domain.Service{
				{Name: "web", Ports: []domain.Port{"80", "443"}},
				{Name: "app", Ports: []domain.Port{"8000-8080"}},
			},
			"web -> 80,443, app -> 8000-8080",
		},
		{"no ports", []domain.Service{{Name: "icmp"}}, "icmp -> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatServices(tt.services))
		})
	}
}

func TestFormatApplications(t *testing.T) {
	assert.Equal(t, "", FormatApplications(nil))
	assert.Equal(t, "", FormatApplications([]string{}))
	assert.Equal(t, "nginx", FormatApplications([]string{"nginx"}))
	assert.Equal(t, "nginx, postgres", FormatApplications([]string{"nginx", "postgres"}))
}

func TestActionStyleClass(t *testing.T) {
	assert.Equal(t, StyleDeny, ActionStyleClass("deny"))
	assert.Equal(t, StyleAllow, ActionStyleClass("allow"))
	assert.Equal(t, StyleAllow, ActionStyleClass(""))
	assert.NotEqual(t, ActionStyleClass("deny"), ActionStyleClass("allow"))
}
